package clientdata

import "time"

// Default TTLs, added to time.Now() when storing.
const (
	TTLScreener       = 24 * time.Hour   // batch results, recomputed daily
	TTLMarketSnapshot = 15 * time.Minute // quotes move intraday
)
