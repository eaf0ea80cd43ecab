package databricks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token", nil)
}

func TestFetchSpaceParsesSerializedConfig(t *testing.T) {
	serialized, err := json.Marshal(map[string]any{
		"config": map[string]any{
			"sample_questions": []any{map[string]any{"question": "q1"}},
		},
	})
	require.NoError(t, err)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/genie/spaces/space123", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("include_serialized_space"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"serialized_space": string(serialized)})
	})

	tree, err := client.FetchSpace(context.Background(), "space123")
	require.NoError(t, err)
	config := tree["config"].(map[string]any)
	assert.Len(t, config["sample_questions"], 1)
}

func TestFetchSpaceErrorCategories(t *testing.T) {
	tests := []struct {
		status   int
		category string
	}{
		{http.StatusBadRequest, CategoryValidation},
		{http.StatusForbidden, CategoryPermission},
		{http.StatusNotFound, CategoryNotFound},
		{http.StatusGatewayTimeout, CategoryTimeout},
		{http.StatusInternalServerError, CategoryInternal},
	}
	for _, tc := range tests {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(map[string]any{"message": "nope"})
		})

		_, err := client.FetchSpace(context.Background(), "space123")
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr), "status %d", tc.status)
		assert.Equal(t, tc.status, apiErr.StatusCode)
		assert.Equal(t, tc.category, apiErr.Category)
		assert.Equal(t, "nope", apiErr.Message)
	}
}

func TestFetchSpaceMissingSerializedSpace(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"space_id": "space123"})
	})
	_, err := client.FetchSpace(context.Background(), "space123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serialized_space")
}

func TestValidateSpaceID(t *testing.T) {
	assert.NoError(t, ValidateSpaceID("01ef9215ab4512345678901234567890"))
	assert.Error(t, ValidateSpaceID(""))
	assert.Error(t, ValidateSpaceID("   "))
	assert.Error(t, ValidateSpaceID("id with spaces"))
	assert.Error(t, ValidateSpaceID("../etc/passwd"))
}

func TestCreateSpace(t *testing.T) {
	var captured map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/2.0/genie/spaces", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]any{"space_id": "new-space-id"})
	})

	created, err := client.CreateSpace(context.Background(), "  Optimized Sales  ",
		map[string]any{"config": map[string]any{}}, "/Workspace/Users/dev", "wh-1")
	require.NoError(t, err)

	assert.Equal(t, "new-space-id", created.SpaceID)
	assert.Equal(t, "Optimized Sales", created.DisplayName)
	assert.Equal(t, client.Host()+"/genie/rooms/new-space-id", created.URL)

	assert.Equal(t, "Optimized Sales", captured["title"])
	assert.Equal(t, "/Workspace/Users/dev/", captured["parent_path"], "parent path gains a trailing slash")
	assert.Equal(t, "wh-1", captured["warehouse_id"])

	var roundTripped map[string]any
	require.NoError(t, json.Unmarshal([]byte(captured["serialized_space"].(string)), &roundTripped))
	assert.Contains(t, roundTripped, "config")
}

func TestCreateSpaceValidatesInput(t *testing.T) {
	client := NewClient("https://example.databricks.com", "t", nil)

	_, err := client.CreateSpace(context.Background(), "  ", map[string]any{}, "/path", "wh")
	assert.Error(t, err)
	_, err = client.CreateSpace(context.Background(), "name", map[string]any{}, "", "wh")
	assert.Error(t, err)
	_, err = client.CreateSpace(context.Background(), "name", map[string]any{}, "/path", "")
	assert.Error(t, err)
}

func TestValidateReadOnlySQL(t *testing.T) {
	valid := []string{
		"SELECT * FROM main.sales.orders",
		"select count(*) from t",
		"WITH cte AS (SELECT 1) SELECT * FROM cte",
		"  SELECT 1  ",
	}
	for _, sql := range valid {
		assert.NoError(t, ValidateReadOnlySQL(sql), sql)
	}

	invalid := []string{
		"DROP TABLE t",
		"SELECT * FROM t; DROP TABLE t",
		"INSERT INTO t VALUES (1)",
		"SELECT * FROM t WHERE id IN (DELETE FROM u)",
		"CALL my_proc()",
		"EXPLAIN SELECT 1",
		"",
	}
	for _, sql := range invalid {
		err := ValidateReadOnlySQL(sql)
		require.Error(t, err, sql)
		var validationErr *SQLValidationError
		assert.True(t, errors.As(err, &validationErr), sql)
	}
}

func TestExecuteSQLRejectsBeforeNetwork(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid SQL")
	})
	_, err := client.ExecuteSQL(context.Background(), "DROP TABLE t", "wh-1")
	var validationErr *SQLValidationError
	require.True(t, errors.As(err, &validationErr))
}

func TestExecuteSQLParsesResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/sql/statements", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{"state": "SUCCEEDED"},
			"manifest": map[string]any{
				"schema": map[string]any{
					"columns": []any{
						map[string]any{"name": "region", "type_name": "STRING"},
						map[string]any{"name": "total", "type_name": "DOUBLE"},
					},
				},
				"truncated": true,
			},
			"result": map[string]any{
				"data_array": []any{
					[]any{"EMEA", 10.5},
					[]any{"APAC", 7.25},
				},
			},
		})
	})

	result, err := client.ExecuteSQL(context.Background(), "SELECT region, total FROM s", "wh-1")
	require.NoError(t, err)
	assert.Equal(t, []Column{{Name: "region", TypeName: "STRING"}, {Name: "total", TypeName: "DOUBLE"}}, result.Columns)
	assert.Equal(t, 2, result.RowCount)
	assert.True(t, result.Truncated)
	assert.Equal(t, "EMEA", result.Data[0][0])
}

func TestExecuteSQLSurfacesFailedState(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[string]any{
				"state": "FAILED",
				"error": map[string]any{"message": "table not found"},
			},
		})
	})
	_, err := client.ExecuteSQL(context.Background(), "SELECT 1", "wh-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table not found")
}

func TestQueryGenieSQLPollsToCompletion(t *testing.T) {
	polls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]any{
				"conversation": map[string]any{"id": "conv1"},
				"message":      map[string]any{"id": "msg1"},
			})
		default:
			polls++
			if polls < 3 {
				json.NewEncoder(w).Encode(map[string]any{"status": "IN_PROGRESS"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"status": "COMPLETED",
				"attachments": []any{
					map[string]any{"text": "explanation"},
					map[string]any{"query": map[string]any{"query": "SELECT 1"}},
				},
			})
		}
	})

	result, err := client.QueryGenieSQL(context.Background(), "space123", "how many orders?",
		5*time.Second, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", result.Status)
	assert.Equal(t, "SELECT 1", result.SQL)
	assert.Equal(t, "conv1", result.ConversationID)
	assert.Equal(t, "msg1", result.MessageID)
	assert.GreaterOrEqual(t, polls, 3)
}

func TestQueryGenieSQLReportsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{
				"conversation": map[string]any{"id": "conv1"},
				"message":      map[string]any{"id": "msg1"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "FAILED", "error": "model overloaded"})
	})

	result, err := client.QueryGenieSQL(context.Background(), "space123", "q", time.Second, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "FAILED", result.Status)
	assert.Equal(t, "model overloaded", result.Error)
	assert.Empty(t, result.SQL)
}
