package attempt_api_client

const (
	// API Endpoints
	AttemptsEndpoint = "/api/v1/attempts/start-or-get"

	// Headers
	AuthorizationHeader = "Authorization"
)
