package test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anadolic/inkwell/internal/auth"
)

// doLogin drives the full authorization code flow against the fake identity
// provider and leaves the session cookie in the suite's cookie jar.
func (s *IntegrationTestSuite) doLogin(ctx context.Context) {
	t := s.T()

	// step 1: /login redirects to the provider and sets the state cookie
	req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/login", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusFound, resp.StatusCode)

	providerURL, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := providerURL.Query().Get("state")
	require.NotEmpty(t, state)

	// step 2: the provider sends the user back with state and code
	callbackURL := serverEndpoint + "/oauth/callback?state=" + url.QueryEscape(state) + "&code=test-code"
	req, err = http.NewRequestWithContext(ctx, "GET", callbackURL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")

	resp, err = s.httpClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, serverEndpoint+"/", resp.Header.Get("Location"))
}

func (s *IntegrationTestSuite) doLogout(ctx context.Context) {
	t := s.T()

	req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/logout", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusFound, resp.StatusCode)
}

func (s *IntegrationTestSuite) sessionCookiePresent() bool {
	u, _ := url.Parse(serverEndpoint)
	for _, c := range s.httpClient.Jar.Cookies(u) {
		if c.Name == auth.SessionCookieName && c.Value != "" {
			return true
		}
	}
	return false
}

func (s *IntegrationTestSuite) TestLoginFlow() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.T().Run("full flow issues session", func(t *testing.T) {
		s.doLogin(ctx)
		assert.True(t, s.sessionCookiePresent())
		s.doLogout(ctx)
		assert.False(t, s.sessionCookiePresent())
	})

	s.T().Run("state mismatch redirects to failure", func(t *testing.T) {
		// prime the state cookie
		req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/login", nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		callbackURL := serverEndpoint + "/oauth/callback?state=wrong-state&code=test-code"
		req, err = http.NewRequestWithContext(ctx, "GET", callbackURL, nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")

		resp, err = s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, serverEndpoint+"/login-failed", resp.Header.Get("Location"))
		assert.False(t, s.sessionCookiePresent())
	})

	s.T().Run("verified identity not on the allow list", func(t *testing.T) {
		s.provider.sub = "some-stranger-sub"
		defer func() {
			s.provider.sub = testEditorSub
		}()

		req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/login", nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		providerURL, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		state := providerURL.Query().Get("state")

		callbackURL := serverEndpoint + "/oauth/callback?state=" + url.QueryEscape(state) + "&code=test-code"
		req, err = http.NewRequestWithContext(ctx, "GET", callbackURL, nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")

		resp, err = s.httpClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, serverEndpoint+"/login-failed", resp.Header.Get("Location"))
		assert.False(t, s.sessionCookiePresent())
	})
}
