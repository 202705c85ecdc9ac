package httpserver

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/dmitrijs2005/studymatch/internal/logging"
)

// RouteClass decides how the gate answers an unauthenticated request.
type RouteClass int

const (
	// PageRoute redirects to the sign-in page.
	PageRoute RouteClass = iota + 1
	// APIRoute answers 401 with a JSON body.
	APIRoute
)

const signInPath = "/signin"

// GateRule protects every path equal to Prefix or below it.
type GateRule struct {
	Prefix string
	Class  RouteClass
}

var DefaultGateRules = []GateRule{
	{Prefix: "/browseprofiles", Class: PageRoute},
	{Prefix: "/profile", Class: PageRoute},
	{Prefix: "/messages", Class: PageRoute},
	{Prefix: "/chatroom", Class: APIRoute},
	{Prefix: "/chat", Class: APIRoute},
	{Prefix: "/ws", Class: APIRoute},
}

// TokenVerifier resolves a session token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

func matchRule(rules []GateRule, path string) (GateRule, bool) {
	for _, r := range rules {
		if path == r.Prefix || strings.HasPrefix(path, strings.TrimSuffix(r.Prefix, "/")+"/") {
			return r, true
		}
	}
	return GateRule{}, false
}

// tokenFromRequest reads the session cookie, falling back to a bearer
// token for programmatic clients.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(common.AuthCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// AuthGate enforces rules ahead of the router. Requests on protected paths
// proceed only with a valid token, carrying its user id in the context.
// Unmatched paths pass through untouched.
func AuthGate(verifier TokenVerifier, rules []GateRule, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := matchRule(rules, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			token := tokenFromRequest(r)
			var (
				userID string
				err    error
			)
			if token == "" {
				err = common.ErrorUnauthorized
			} else {
				userID, err = verifier.VerifyToken(token)
			}

			if err != nil {
				log.Debug(r.Context(), "auth gate rejected request", "path", r.URL.Path, "reason", err)
				if rule.Class == PageRoute {
					http.Redirect(w, r, signInPath, http.StatusFound)
					return
				}
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}
