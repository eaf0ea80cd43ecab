package databricks

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Row limit for query results. Larger result sets are truncated server-side.
const maxRows = 1000

// waitTimeout is passed to the statement execution API for synchronous
// execution.
const waitTimeout = "30s"

var blockedSQLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(DROP|DELETE|TRUNCATE|UPDATE|INSERT|ALTER|CREATE|GRANT|REVOKE)\b`),
	regexp.MustCompile(`\b(EXEC|EXECUTE|CALL)\b`),
	regexp.MustCompile(`;\s*\w`),
}

// SQLValidationError marks a statement rejected by read-only validation.
type SQLValidationError struct {
	Reason string
}

func (e *SQLValidationError) Error() string {
	return e.Reason
}

// ValidateReadOnlySQL allows only SELECT statements and CTEs, rejecting
// mutations, procedure calls and statement chaining.
func ValidateReadOnlySQL(sql string) error {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return &SQLValidationError{Reason: "only SELECT queries are allowed; query must start with SELECT or WITH"}
	}
	for _, pattern := range blockedSQLPatterns {
		if pattern.MatchString(upper) {
			return &SQLValidationError{Reason: "query contains a disallowed SQL operation; only read-only SELECT queries are permitted"}
		}
	}
	return nil
}

// Column is one column of a query result.
type Column struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name"`
}

// QueryResult is a tabular statement execution result.
type QueryResult struct {
	Columns   []Column `json:"columns"`
	Data      [][]any  `json:"data"`
	RowCount  int      `json:"row_count"`
	Truncated bool     `json:"truncated"`
}

// ExecuteSQL runs a read-only statement on a SQL warehouse via the
// statement execution API. Validation failures are returned before any
// network call.
func (c *Client) ExecuteSQL(ctx context.Context, sql, warehouseID string) (*QueryResult, error) {
	if warehouseID == "" {
		return nil, fmt.Errorf("SQL warehouse ID is required")
	}
	if err := ValidateReadOnlySQL(sql); err != nil {
		c.log.Warn("rejected SQL statement", zap.Error(err))
		return nil, err
	}

	c.log.Info("executing SQL", zap.String("warehouse_id", warehouseID))

	resp, err := c.do(ctx, http.MethodPost, "/api/2.0/sql/statements", nil, map[string]any{
		"warehouse_id": warehouseID,
		"statement":    sql,
		"wait_timeout": waitTimeout,
		"row_limit":    maxRows,
	})
	if err != nil {
		return nil, err
	}

	if status, ok := resp["status"].(map[string]any); ok {
		if state, _ := status["state"].(string); state == "FAILED" {
			message := "execution failed"
			if errObj, ok := status["error"].(map[string]any); ok {
				if m, _ := errObj["message"].(string); m != "" {
					message = m
				}
			}
			return nil, fmt.Errorf("SQL execution failed: %s", message)
		}
	}

	result := &QueryResult{Columns: []Column{}, Data: [][]any{}}
	if manifest, ok := resp["manifest"].(map[string]any); ok {
		if schema, ok := manifest["schema"].(map[string]any); ok {
			for _, col := range asAnyList(schema["columns"]) {
				m, ok := col.(map[string]any)
				if !ok {
					continue
				}
				name, _ := m["name"].(string)
				typeName, _ := m["type_name"].(string)
				result.Columns = append(result.Columns, Column{Name: name, TypeName: typeName})
			}
		}
		result.Truncated, _ = manifest["truncated"].(bool)
	}
	if data, ok := resp["result"].(map[string]any); ok {
		for _, row := range asAnyList(data["data_array"]) {
			result.Data = append(result.Data, asAnyList(row))
		}
	}
	result.RowCount = len(result.Data)
	return result, nil
}

// GenieQueryResult is the outcome of asking a Genie Space for SQL.
type GenieQueryResult struct {
	SQL            string `json:"sql,omitempty"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

// QueryGenieSQL asks a Genie Space a natural-language question and polls the
// conversation until it completes, extracting the generated SQL from the
// message attachments.
func (c *Client) QueryGenieSQL(ctx context.Context, spaceID, question string, timeout, pollInterval time.Duration) (*GenieQueryResult, error) {
	if err := ValidateSpaceID(spaceID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question is required")
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	c.log.Info("starting genie conversation", zap.String("space_id", spaceID))

	start, err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("/api/2.0/genie/spaces/%s/start-conversation", spaceID), nil,
		map[string]any{"content": question})
	if err != nil {
		return nil, err
	}
	conversationID := nestedID(start, "conversation")
	messageID := nestedID(start, "message")
	if conversationID == "" || messageID == "" {
		return nil, fmt.Errorf("start-conversation response is missing conversation or message id")
	}

	deadline := time.Now().Add(timeout)
	messagePath := fmt.Sprintf("/api/2.0/genie/spaces/%s/conversations/%s/messages/%s",
		spaceID, conversationID, messageID)

	for {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("genie query timed out after %s", timeout)
		}

		message, err := c.do(ctx, http.MethodGet, messagePath, nil, nil)
		if err != nil {
			return nil, err
		}
		status, _ := message["status"].(string)

		switch status {
		case "COMPLETED":
			return &GenieQueryResult{
				SQL:            extractSQL(message),
				Status:         status,
				ConversationID: conversationID,
				MessageID:      messageID,
			}, nil
		case "FAILED", "CANCELLED":
			errMsg, _ := message["error"].(string)
			if errMsg == "" {
				errMsg = "unknown error"
			}
			c.log.Warn("genie query failed",
				zap.String("status", status),
				zap.String("error", errMsg))
			return &GenieQueryResult{
				Status:         status,
				Error:          errMsg,
				ConversationID: conversationID,
				MessageID:      messageID,
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// extractSQL pulls the first SQL statement out of message attachments. The
// query field is either the SQL string directly or an object carrying it.
func extractSQL(message map[string]any) string {
	for _, att := range asAnyList(message["attachments"]) {
		m, ok := att.(map[string]any)
		if !ok {
			continue
		}
		switch q := m["query"].(type) {
		case string:
			if q != "" {
				return q
			}
		case map[string]any:
			if sql, _ := q["query"].(string); sql != "" {
				return sql
			}
		}
	}
	return ""
}

func nestedID(resp map[string]any, key string) string {
	obj, _ := resp[key].(map[string]any)
	id, _ := obj["id"].(string)
	return id
}

func asAnyList(v any) []any {
	list, _ := v.([]any)
	return list
}
