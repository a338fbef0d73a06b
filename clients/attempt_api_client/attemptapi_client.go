package attempt_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/rmarchetti/examclock/clients"
	"github.com/rmarchetti/examclock/internal/attempt"
)

// AttemptApiClient talks to the remote attempt service. The service owns
// attempt records and their statuses; this client only starts or fetches
// them.
type AttemptApiClient struct {
	*clients.BaseClient
}

func NewAttemptApiClient(baseURL, apiToken string) *AttemptApiClient {
	client := &AttemptApiClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader("Content-Type", "application/json")
	if apiToken != "" {
		client.SetHeader(AuthorizationHeader, "Bearer "+apiToken)
	}

	return client
}

type startOrGetRequest struct {
	ExamID string `json:"exam_id"`
}

// StartOrGetAttempt starts an attempt for the exam, or returns the
// existing one. The service guarantees idempotency, so calling this
// repeatedly for the same exam and student never creates a duplicate.
func (c *AttemptApiClient) StartOrGetAttempt(ctx context.Context, examID uuid.UUID) (*attempt.Attempt, error) {
	payload, err := json.Marshal(startOrGetRequest{ExamID: examID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attempt request: %w", err)
	}

	body, err := c.Post(ctx, AttemptsEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to start or get attempt: %w", err)
	}

	var att attempt.Attempt
	if err := json.Unmarshal(body, &att); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempt response: %w, raw response: %s", err, string(body))
	}

	switch att.Status {
	case attempt.StatusNotStarted, attempt.StatusInProgress, attempt.StatusSubmitted, attempt.StatusExpired:
	default:
		return nil, fmt.Errorf("attempt service returned unknown status %q", att.Status)
	}

	return &att, nil
}
