package constant

const (
	// HeaderAPIKey carries the shared application key on every protected request.
	HeaderAPIKey = "x-api-key"
	// HeaderClientID carries the stable browser identifier.
	HeaderClientID = "x-browser-id"

	ServiceName = "AI Multi-Agent Backend"

	// NDJSONContentType is the media type of the streaming generate route.
	NDJSONContentType = "application/x-ndjson"
)
