package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/helmcode/genie-ai/pkg/config"
	"github.com/helmcode/genie-ai/pkg/databricks"
	"github.com/helmcode/genie-ai/pkg/optimizer"
)

var (
	publishConfig string
	parentPath    string
)

func NewPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish NAME",
		Short: "Create a new Genie Space from an optimized configuration",
		Long: `Normalize an optimized configuration against the platform's schema
constraints and publish it as a new Genie Space.

Examples:
  # Publish a merged configuration
  genie-ai publish "Sales Analytics v2" --space-config merged.json

  # Publish into a specific workspace directory
  genie-ai publish "Sales Analytics v2" --space-config merged.json --parent-path /Workspace/Users/me/`,
		Args: cobra.ExactArgs(1),
		RunE: runPublish,
	}

	cmd.Flags().StringVar(&publishConfig, "space-config", "", "JSON file with the space configuration to publish (required)")
	cmd.Flags().StringVar(&parentPath, "parent-path", "", "Workspace directory for the new space (defaults to target_directory)")
	cmd.MarkFlagRequired("space-config") //nolint:errcheck
	addCommonFlags(cmd)

	return cmd
}

func runPublish(cmd *cobra.Command, args []string) error {
	displayName := args[0]

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if parentPath != "" {
		cfg.TargetDirectory = parentPath
	}
	if err := cfg.ValidatePublish(); err != nil {
		return err
	}
	log := buildLogger(verbose)
	defer log.Sync() //nolint:errcheck

	raw, err := os.ReadFile(publishConfig)
	if err != nil {
		return fmt.Errorf("read space configuration: %w", err)
	}
	tree := map[string]any{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("parse space configuration %s: %w", publishConfig, err)
	}

	normalized := optimizer.Normalize(tree, log)
	printSuccess("Configuration normalized")

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	s.Suffix = " Creating Genie Space..."
	s.Start()

	client := databricks.NewClient(cfg.Host, cfg.Token, log)
	created, err := client.CreateSpace(cmd.Context(), displayName, normalized, cfg.TargetDirectory, cfg.WarehouseID)
	if err != nil {
		s.Stop()
		printError("Space creation failed")
		return err
	}
	s.Stop()

	printSuccess(fmt.Sprintf("Created Genie Space %s", created.SpaceID))
	fmt.Printf("🔗 %s\n", created.URL)
	return nil
}
