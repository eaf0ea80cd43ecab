// Package databricks is a thin HTTP client for the workspace APIs the
// pipeline needs: fetching and creating Genie Spaces, running read-only SQL
// on a warehouse, and asking a Genie Space for generated SQL.
package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// APIError categories.
const (
	CategoryValidation = "validation"
	CategoryPermission = "permission"
	CategoryNotFound   = "not_found"
	CategoryTimeout    = "timeout"
	CategoryInternal   = "internal"
)

// APIError is a workspace API failure with its HTTP status mapped to a
// stable category callers can branch on.
type APIError struct {
	StatusCode int
	Category   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("databricks API error (%s, status %d): %s", e.Category, e.StatusCode, e.Message)
}

func categorize(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CategoryValidation
	case http.StatusForbidden:
		return CategoryPermission
	case http.StatusNotFound:
		return CategoryNotFound
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return CategoryTimeout
	default:
		return CategoryInternal
	}
}

// Client talks to one Databricks workspace.
type Client struct {
	host  string
	token string
	http  *http.Client
	log   *zap.Logger
}

// NewClient creates a workspace client. log may be nil.
func NewClient(host, token string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		host:  strings.TrimRight(host, "/"),
		token: token,
		http:  &http.Client{Timeout: 120 * time.Second},
		log:   log,
	}
}

// Host returns the workspace base URL.
func (c *Client) Host() string {
	return c.host
}

// ValidateSpaceID rejects empty or whitespace-bearing space identifiers
// before they reach a URL path.
func ValidateSpaceID(spaceID string) error {
	if strings.TrimSpace(spaceID) == "" {
		return errors.New("genie space ID is required")
	}
	if strings.ContainsAny(spaceID, " \t\n/") {
		return fmt.Errorf("invalid genie space ID: %q", spaceID)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (map[string]any, error) {
	endpoint := c.host + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling workspace API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(raw))
		var apiMsg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiMsg) == nil && apiMsg.Message != "" {
			message = apiMsg.Message
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Category:   categorize(resp.StatusCode),
			Message:    message,
		}
	}

	result := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("error parsing response: %w", err)
		}
	}
	return result, nil
}

// FetchSpace retrieves a Genie Space and returns its parsed serialized
// configuration tree.
func (c *Client) FetchSpace(ctx context.Context, spaceID string) (map[string]any, error) {
	if err := ValidateSpaceID(spaceID); err != nil {
		return nil, err
	}

	c.log.Info("fetching genie space", zap.String("space_id", spaceID))

	resp, err := c.do(ctx, http.MethodGet, "/api/2.0/genie/spaces/"+spaceID,
		url.Values{"include_serialized_space": {"true"}}, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to get space [%s]: %w", spaceID, err)
	}

	serialized, ok := resp["serialized_space"].(string)
	if !ok || serialized == "" {
		return nil, fmt.Errorf("space [%s] response is missing serialized_space", spaceID)
	}
	tree := map[string]any{}
	if err := json.Unmarshal([]byte(serialized), &tree); err != nil {
		return nil, fmt.Errorf("unable to parse serialized space [%s]: %w", spaceID, err)
	}
	return tree, nil
}

// CreatedSpace describes a newly created Genie Space.
type CreatedSpace struct {
	SpaceID     string `json:"genie_space_id"`
	DisplayName string `json:"display_name"`
	URL         string `json:"space_url"`
}

// CreateSpace publishes a configuration tree as a new Genie Space under
// parentPath. The configuration should already be normalized.
func (c *Client) CreateSpace(ctx context.Context, displayName string, config map[string]any, parentPath, warehouseID string) (*CreatedSpace, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, errors.New("display name is required")
	}
	parentPath = strings.TrimSpace(parentPath)
	if parentPath == "" {
		return nil, errors.New("parent path is required")
	}
	if !strings.HasSuffix(parentPath, "/") {
		parentPath += "/"
	}
	if warehouseID == "" {
		return nil, errors.New("SQL warehouse ID is required")
	}

	serialized, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("error serializing space configuration: %w", err)
	}

	c.log.Info("creating genie space",
		zap.String("title", displayName),
		zap.String("parent_path", parentPath),
		zap.String("warehouse_id", warehouseID),
		zap.Int("serialized_bytes", len(serialized)))

	resp, err := c.do(ctx, http.MethodPost, "/api/2.0/genie/spaces", nil, map[string]any{
		"title":            displayName,
		"description":      "Optimized Genie Space created from genie-ai",
		"parent_path":      parentPath,
		"warehouse_id":     warehouseID,
		"serialized_space": string(serialized),
	})
	if err != nil {
		return nil, err
	}

	spaceID, _ := resp["space_id"].(string)
	if spaceID == "" {
		return nil, fmt.Errorf("create space response did not include a space_id")
	}
	return &CreatedSpace{
		SpaceID:     spaceID,
		DisplayName: displayName,
		URL:         fmt.Sprintf("%s/genie/rooms/%s", c.host, spaceID),
	}, nil
}
