package ws

import (
	"net/http"
	"os"
	"strings"
	"sync"
)

// originAllowlist holds the set of browser origins allowed to open a socket,
// loaded once from ALLOWED_ORIGINS (comma separated). The job-board frontend
// runs on http://localhost:3000 in development, which is the default when the
// variable is unset.
var originAllowlist = sync.OnceValue(func() map[string]bool {
	raw := os.Getenv("ALLOWED_ORIGINS")
	if raw == "" {
		raw = "http://localhost:3000"
	}
	set := make(map[string]bool)
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			set[strings.ToLower(o)] = true
		}
	}
	return set
})

// CheckOrigin is the gorilla/websocket Upgrader origin policy. Requests
// without an Origin header (same origin, curl, native clients) are accepted;
// browser cross-origin requests must match the allowlist.
func CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return originAllowlist()[strings.ToLower(origin)]
}
