package redis

import "time"

// Cache keys
const (
	BasketKeyPrefix     = "basket:"
	ComparisonKeyPrefix = "comparison:"
	DispatchKeyPrefix   = "dispatch:"
	TokenKeyPrefix      = "token:"
	ProductKeyPrefix    = "product:"

	// TTL durations
	BasketTTL         = 12 * time.Hour
	DefaultTableTTL   = 30 * time.Minute
	DispatchMarkerTTL = 24 * time.Hour
	ProductCacheTTL   = 60 * time.Minute

	maxBasketRetries = 5
)
