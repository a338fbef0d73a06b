package main

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/rmarchetti/examclock/clients/attempt_api_client"
	"github.com/rmarchetti/examclock/internal/gateway"
	"github.com/rmarchetti/examclock/internal/session"
	"github.com/rmarchetti/examclock/internal/timerstore"
)

type Services struct {
	Sessions *gateway.SessionHandler
}

func setupServices(config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Store + attempt client → resumption guard → session gateway

	clock := clockwork.NewRealClock()

	store, err := timerstore.NewFileStore(config.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to set up timer store: %w", err)
	}

	attemptClient := attempt_api_client.NewAttemptApiClient(
		config.AttemptService.BaseURL,
		config.AttemptService.APIToken,
	)

	guard := session.NewGuard(attemptClient, store, clock)
	sessionHandler := gateway.NewSessionHandler(guard, store, clock, gateway.DefaultConnectionConfig())

	return &Services{
		Sessions: sessionHandler,
	}, nil
}
