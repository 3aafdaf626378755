package bungie

const (
	// Base URL
	BaseURL = "https://www.bungie.net/Platform"

	// API Endpoints
	SearchPlayerEndpoint = "/Destiny2/SearchDestinyPlayer/"
	ProfileEndpoint      = "/Destiny2/%s/Profile/%s/?components=100,200"
	ActivitiesEndpoint   = "/Destiny2/%s/Account/%s/Character/0/Stats/Activities/?count=10&mode=0"
	CharacterEndpoint    = "/Destiny2/%s/Profile/%s/Character/%s/?components=204"

	// Headers
	APIKeyHeader = "X-API-Key"

	// ErrorCode value Bungie returns on success
	ErrorCodeSuccess = 1
)
