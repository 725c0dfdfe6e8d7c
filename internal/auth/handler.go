package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/anadolic/inkwell/internal/telemetry/metrics"
	"github.com/anadolic/inkwell/internal/telemetry/tracing"
	"github.com/anadolic/inkwell/pkg"
)

const stateCookieName = "inkwell_oauth_state"

type loginVerifier interface {
	LoginURL(state string) string
	CompleteLogin(ctx context.Context, code string) (string, error)
}

type sessionIssuer interface {
	Issue(userID string) (string, error)
	Cookie(token string) *http.Cookie
	Revoke(w http.ResponseWriter)
}

type Handler struct {
	verifier loginVerifier
	sessions sessionIssuer
	editors  authorizationChecker
	metrics  *metrics.Manager

	loginSuccessURL string
	loginFailureURL string
	indexURL        string

	// ability to inject random string generator func for states (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

type NewHandlerParams struct {
	Verifier        loginVerifier
	Sessions        sessionIssuer
	Editors         authorizationChecker
	Metrics         *metrics.Manager
	LoginSuccessURL string
	LoginFailureURL string
	IndexURL        string
}

func NewHandler(params NewHandlerParams) *Handler {
	return &Handler{
		verifier:        params.Verifier,
		sessions:        params.Sessions,
		editors:         params.Editors,
		metrics:         params.Metrics,
		loginSuccessURL: params.LoginSuccessURL,
		loginFailureURL: params.LoginFailureURL,
		indexURL:        params.IndexURL,
		RandStringFunc:  pkg.GenerateRandomString,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router, rateLimitLogin func(next http.Handler) http.Handler) {
	loginHandler := http.Handler(http.HandlerFunc(handler.handleLogin))
	if rateLimitLogin != nil {
		loginHandler = rateLimitLogin(loginHandler)
	}
	router.Handle("/login", loginHandler).Methods("GET").Name("login")
	router.HandleFunc("/oauth/callback", handler.handleCallback).Methods("GET").Name("oauth-callback")
	router.HandleFunc("/logout", handler.handleLogout).Methods("GET").Name("logout")
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "auth.handler.login")
	defer span.End()

	state, err := handler.RandStringFunc(24)
	if err != nil {
		log.Errorf("login, generate state: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, handler.verifier.LoginURL(state), http.StatusFound)
}

func (handler *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "auth.handler.callback")
	defer span.End()

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" {
		handler.loginFailed(w, r, "missing state cookie")
		return
	}
	if state := r.URL.Query().Get("state"); state != stateCookie.Value {
		handler.loginFailed(w, r, "state mismatch")
		return
	}

	// state cookie is single use
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		handler.loginFailed(w, r, "missing code")
		return
	}

	userID, err := handler.verifier.CompleteLogin(ctx, code)
	if err != nil {
		handler.loginFailed(w, r, err.Error())
		return
	}

	isEditor, err := handler.editors.IsAuthorized(ctx, userID)
	if err != nil {
		log.Errorf("login callback, check editor %s: %s", userID, err)
		handler.loginFailed(w, r, "editors check failed")
		return
	}
	if !isEditor {
		reqIp, _ := pkg.ReadUserIP(r)
		log.Warnf("login callback, user %s from %s not on the editors list", userID, reqIp)
		handler.metrics.CounterLogins.WithLabelValues("denied").Inc()
		http.Redirect(w, r, handler.loginFailureURL, http.StatusFound)
		return
	}

	sessionToken, err := handler.sessions.Issue(userID)
	if err != nil {
		log.Errorf("login callback, issue session for %s: %s", userID, err)
		handler.loginFailed(w, r, "session issue failed")
		return
	}

	http.SetCookie(w, handler.sessions.Cookie(sessionToken))
	handler.metrics.CounterLogins.WithLabelValues("success").Inc()
	log.Tracef("user %s logged in", userID)

	http.Redirect(w, r, handler.loginSuccessURL, http.StatusFound)
}

func (handler *Handler) loginFailed(w http.ResponseWriter, r *http.Request, reason string) {
	reqIp, _ := pkg.ReadUserIP(r)
	log.Errorf("login failed for %s: %s", reqIp, reason)
	handler.metrics.CounterLogins.WithLabelValues("failure").Inc()
	http.Redirect(w, r, handler.loginFailureURL, http.StatusFound)
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "auth.handler.logout")
	defer span.End()

	handler.sessions.Revoke(w)

	http.Redirect(w, r, handler.indexURL, http.StatusFound)
}
