package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/anadolic/inkwell/internal/telemetry/tracing"
)

// ErrIdentityProvider covers all failures while talking to the identity
// provider: code exchange, profile fetch, malformed profile. Callers treat
// them all as one failed login.
var ErrIdentityProvider = errors.New("identity provider error")

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

type NewVerifierParams struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// endpoint overrides, empty values fall back to Google
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// HTTPClient is used for the token exchange and the profile fetch.
	HTTPClient *http.Client
}

// Verifier runs the authorization code flow against the identity provider
// and resolves the stable user ID of the logged in person.
type Verifier struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func NewVerifier(params NewVerifierParams) *Verifier {
	authURL := params.AuthURL
	if authURL == "" {
		authURL = googleAuthURL
	}
	tokenURL := params.TokenURL
	if tokenURL == "" {
		tokenURL = googleTokenURL
	}
	userInfoURL := params.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = googleUserInfoURL
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Verifier{
		config: &oauth2.Config{
			ClientID:     params.ClientID,
			ClientSecret: params.ClientSecret,
			RedirectURL:  params.RedirectURL,
			Scopes:       []string{"profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
	}
}

// LoginURL returns the provider URL to send the user to, bound to the
// given anti-forgery state.
func (v *Verifier) LoginURL(state string) string {
	return v.config.AuthCodeURL(state)
}

type userInfoResponse struct {
	Sub string `json:"sub"`
}

// CompleteLogin exchanges the authorization code for a token, fetches the
// user profile and returns the provider assigned user ID.
func (v *Verifier) CompleteLogin(ctx context.Context, code string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "auth.verifier.completeLogin")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)

	token, err := v.config.Exchange(ctx, code)
	if err != nil {
		log.Errorf("identity verifier, exchange code: %s", err)
		return "", fmt.Errorf("%w: code exchange failed", ErrIdentityProvider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create profile request", ErrIdentityProvider)
	}

	resp, err := v.config.Client(ctx, token).Do(req)
	if err != nil {
		log.Errorf("identity verifier, get user info: %s", err)
		return "", fmt.Errorf("%w: profile fetch failed", ErrIdentityProvider)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warnf("identity verifier, close user info response: %s", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Errorf("identity verifier, user info status: %d", resp.StatusCode)
		return "", fmt.Errorf("%w: profile fetch status %d", ErrIdentityProvider, resp.StatusCode)
	}

	var userInfo userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		log.Errorf("identity verifier, decode user info: %s", err)
		return "", fmt.Errorf("%w: malformed profile", ErrIdentityProvider)
	}

	if userInfo.Sub == "" {
		return "", fmt.Errorf("%w: profile without subject", ErrIdentityProvider)
	}

	return userInfo.Sub, nil
}
