// Package admin holds the back-office API handlers. Authentication is
// handled upstream; the acting operator's identity arrives in headers
// set by the auth proxy and feeds the activity log.
package admin

import (
	"net/http"
	"strconv"

	"github.com/dukerupert/skadi/internal/service"
)

// actorFrom reads the operator identity forwarded by the auth layer.
// Falls back to a generic system actor so audit entries are never blank.
func actorFrom(r *http.Request) service.Actor {
	actor := service.Actor{
		Name: r.Header.Get("X-Admin-Name"),
		Role: r.Header.Get("X-Admin-Role"),
	}
	if actor.Name == "" {
		actor.Name = "system"
	}
	if actor.Role == "" {
		actor.Role = "staff"
	}
	return actor
}

// queryInt32 parses an int32 query parameter, returning fallback when
// absent or malformed.
func queryInt32(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 0 {
		return fallback
	}
	return int32(v)
}
