package constants

import "time"

const (
	ProfileCachePrefix = "profile" // profile rows by id (CacheBuilder adds colon)
	ProfileCacheExpiry = 15 * time.Minute

	DashboardCachePrefix      = "dashboard"
	DashboardStatsCacheKey    = "stats" // stored as dashboard:stats in the general index
	DashboardStatsCacheExpiry = 2 * time.Minute
)
