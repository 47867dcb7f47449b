package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// CacheKey identifies one page of an API query.
type CacheKey struct {
	// Endpoint is the API host and path (e.g., "api.syosetu.com/novelapi/api/")
	Endpoint string

	// QueryParams are the request query parameters, st included
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: narou:endpoint:query1=val1:query2=val2
//
// Example:
//
//	narou:api.syosetu.com/novelapi/api:lim=500:order=hyoka:st=1
func (k CacheKey) String() string {
	parts := []string{"narou"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Sorted for determinism
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
