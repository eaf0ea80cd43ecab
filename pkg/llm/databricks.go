package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Databricks calls a model serving endpoint on a Databricks workspace. The
// endpoint speaks the OpenAI-compatible chat format.
type Databricks struct {
	host   string
	token  string
	model  string
	client *http.Client
	log    *zap.Logger
}

// NewDatabricks builds a serving-endpoint client. host is the workspace URL
// (https://...cloud.databricks.com), model is the serving endpoint name.
func NewDatabricks(host, token, model string, log *zap.Logger) *Databricks {
	if log == nil {
		log = zap.NewNop()
	}
	return &Databricks{
		host:   strings.TrimRight(host, "/"),
		token:  token,
		model:  model,
		client: &http.Client{Timeout: 120 * time.Second},
		log:    log,
	}
}

func (d *Databricks) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = d.model
	}

	body := map[string]any{"messages": messages}
	if opts.MaxTokens > 0 {
		body["max_tokens"] = opts.MaxTokens
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/serving-endpoints/%s/invocations", d.host, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.token)

	d.log.Info("Calling serving endpoint", zap.String("model", model))

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("serving endpoint error (status %d): %s", resp.StatusCode, string(respBytes))
	}

	var endpointResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &endpointResp); err != nil {
		return "", err
	}
	if len(endpointResp.Choices) == 0 {
		return "", fmt.Errorf("response has empty 'choices' list")
	}
	content := endpointResp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("LLM returned empty content")
	}
	return content, nil
}
