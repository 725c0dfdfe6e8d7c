package middleware

import (
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/anadolic/inkwell/internal/auth"
	"github.com/anadolic/inkwell/internal/telemetry/tracing"
)

//go:generate mockgen -source=auth.go -destination=auth_mocks_test.go -package=middleware_test

type accessPolicy interface {
	Authorize(r *http.Request) auth.AccessLevel
}

// AuthMiddlewareHandler resolves the access level of every request and
// injects it into the request context. Mutation paths require editor access,
// everything else passes through and lets the handlers filter visibility.
type AuthMiddlewareHandler struct {
	policy             accessPolicy
	editorOnlyPaths    map[string]bool
	editorOnlyPrefixes []string
}

func NewAuthMiddlewareHandler(policy accessPolicy) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		policy: policy,
		editorOnlyPaths: map[string]bool{
			"/blog/new":    true,
			"/blog/update": true,
		},
		editorOnlyPrefixes: []string{
			"/blog/delete/",
		},
	}
}

func (h *AuthMiddlewareHandler) pathIsEditorOnly(path string) bool {
	if h.editorOnlyPaths[path] {
		return true
	}
	for _, prefix := range h.editorOnlyPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (h *AuthMiddlewareHandler) AccessCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			level := h.policy.Authorize(r)
			r = r.WithContext(auth.WithAccessLevel(r.Context(), level))

			if h.pathIsEditorOnly(r.URL.Path) && level != auth.AccessLevelEditor {
				log.Tracef("[%s] [auth middleware] unauthorized => %s", level, r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "not-editor")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r)
		})
	}
}
