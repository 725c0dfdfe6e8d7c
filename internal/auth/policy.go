package auth

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type AccessLevel int

const (
	AccessLevelAnonymous AccessLevel = iota
	AccessLevelEditor
)

func (l AccessLevel) String() string {
	switch l {
	case AccessLevelEditor:
		return "editor"
	default:
		return "anonymous"
	}
}

type accessLevelContextKey struct{}

func WithAccessLevel(ctx context.Context, level AccessLevel) context.Context {
	return context.WithValue(ctx, accessLevelContextKey{}, level)
}

// AccessLevelFromContext returns the access level the middleware resolved
// for this request. Missing value means anonymous.
func AccessLevelFromContext(ctx context.Context) AccessLevel {
	if level, ok := ctx.Value(accessLevelContextKey{}).(AccessLevel); ok {
		return level
	}
	return AccessLevelAnonymous
}

type sessionReader interface {
	Extract(r *http.Request) (string, bool)
	VerifiedSubject(token string) (string, bool)
}

type authorizationChecker interface {
	IsAuthorized(ctx context.Context, userID string) (bool, error)
}

// Policy resolves the access level of a request. A request is editor level
// only when it carries a valid session credential AND the credential's
// subject is still on the editors allow list. Everything else, including
// store errors, resolves to anonymous.
type Policy struct {
	sessions sessionReader
	editors  authorizationChecker
}

func NewPolicy(sessions sessionReader, editors authorizationChecker) *Policy {
	return &Policy{
		sessions: sessions,
		editors:  editors,
	}
}

func (p *Policy) Authorize(r *http.Request) AccessLevel {
	token, ok := p.sessions.Extract(r)
	if !ok {
		return AccessLevelAnonymous
	}

	userID, ok := p.sessions.VerifiedSubject(token)
	if !ok {
		return AccessLevelAnonymous
	}

	isEditor, err := p.editors.IsAuthorized(r.Context(), userID)
	if err != nil {
		log.Errorf("authorize request, check editor %s: %s", userID, err)
		return AccessLevelAnonymous
	}
	if !isEditor {
		return AccessLevelAnonymous
	}

	return AccessLevelEditor
}
