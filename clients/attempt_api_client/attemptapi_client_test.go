package attempt_api_client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmarchetti/examclock/internal/attempt"
)

func TestStartOrGetAttempt(t *testing.T) {
	attemptID := uuid.New()
	examID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, AttemptsEndpoint, r.URL.Path)
		require.Equal(t, "Bearer token-123", r.Header.Get(AuthorizationHeader))

		var req struct {
			ExamID string `json:"exam_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, examID.String(), req.ExamID)

		json.NewEncoder(w).Encode(attempt.Attempt{
			ID:           attemptID,
			ExamID:       examID,
			TotalTimeSec: 3600,
			Status:       attempt.StatusInProgress,
		})
	}))
	defer server.Close()

	client := NewAttemptApiClient(server.URL, "token-123")
	att, err := client.StartOrGetAttempt(context.Background(), examID)
	require.NoError(t, err)
	assert.Equal(t, attemptID, att.ID)
	assert.Equal(t, 3600, att.TotalTimeSec)
	assert.Equal(t, attempt.StatusInProgress, att.Status)
}

func TestStartOrGetAttemptServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewAttemptApiClient(server.URL, "")
	_, err := client.StartOrGetAttempt(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestStartOrGetAttemptUnknownStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                 uuid.New().String(),
			"total_time_seconds": 600,
			"status":             "PAUSED",
		})
	}))
	defer server.Close()

	client := NewAttemptApiClient(server.URL, "")
	_, err := client.StartOrGetAttempt(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestStartOrGetAttemptUnreachable(t *testing.T) {
	client := NewAttemptApiClient("http://127.0.0.1:1", "")
	_, err := client.StartOrGetAttempt(context.Background(), uuid.New())
	assert.Error(t, err)
}
