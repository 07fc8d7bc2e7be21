package wsserver

import (
	"net/http"
	"net/url"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

// originValidator returns a CheckOrigin function for the upgrader. An
// empty list or a "*" entry accepts every origin. Requests without an
// Origin header are accepted: browsers always send one, and other clients
// can forge it anyway.
func originValidator(allowedOrigins []string, log logger.Logger) func(*http.Request) bool {
	origins := mapset.NewSet[string]()
	allowAll := len(allowedOrigins) == 0

	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		if origin != "" {
			origins.Add(strings.ToLower(origin))
		}
	}

	return func(req *http.Request) bool {
		if _, ok := req.Header["Origin"]; !ok {
			return true
		}
		origin := strings.ToLower(req.Header.Get("Origin"))
		if allowAll || origins.Contains(origin) || originMatchesAny(origins, origin) {
			return true
		}
		log.Warn("rejected websocket connection", "origin", origin)
		return false
	}
}

func originMatchesAny(allowed mapset.Set[string], browserOrigin string) bool {
	for _, origin := range allowed.ToSlice() {
		if ruleAllowsOrigin(origin, browserOrigin) {
			return true
		}
	}
	return false
}

// ruleAllowsOrigin matches an allowlist entry against a browser origin.
// Entries may omit the scheme or the port, in which case any is accepted.
func ruleAllowsOrigin(allowedOrigin, browserOrigin string) bool {
	allowedScheme, allowedHost, allowedPort, ok := parseOrigin(allowedOrigin)
	if !ok {
		return false
	}
	browserScheme, browserHost, browserPort, ok := parseOrigin(browserOrigin)
	if !ok {
		return false
	}
	if allowedScheme != "" && allowedScheme != browserScheme {
		return false
	}
	if allowedHost != "" && allowedHost != browserHost {
		return false
	}
	if allowedPort != "" && allowedPort != browserPort {
		return false
	}
	return true
}

func parseOrigin(origin string) (scheme, host, port string, ok bool) {
	if !strings.Contains(origin, "://") {
		origin = "//" + origin
	}
	u, err := url.Parse(origin)
	if err != nil {
		return "", "", "", false
	}
	return u.Scheme, u.Hostname(), u.Port(), true
}
