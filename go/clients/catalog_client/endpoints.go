package catalog_client

const (
	// Default locations of the catalog service
	DefaultAPIURL  = "http://localhost:8000/api"
	DefaultBaseURL = "http://localhost:8000"

	// API Endpoints
	QuizzesEndpoint      = "/quizzes"
	StartSessionEndpoint = "/quiz/%s/start"

	// Headers
	AcceptHeader = "Accept"
	JSONMimeType = "application/json"
)
