package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testSessionSecret = []byte("test-session-secret")

func TestSessions_IssueAndVerify(t *testing.T) {
	sessions := NewSessions(testSessionSecret, time.Hour)

	token, err := sessions.Issue("user-sub-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, ok := sessions.VerifiedSubject(token)
	require.True(t, ok)
	assert.Equal(t, "user-sub-123", subject)
}

func TestSessions_Issue_EmptyUserID(t *testing.T) {
	sessions := NewSessions(testSessionSecret, time.Hour)

	_, err := sessions.Issue("")
	require.Error(t, err)
}

func TestSessions_VerifiedSubject_Tampered(t *testing.T) {
	sessions := NewSessions(testSessionSecret, time.Hour)

	token, err := sessions.Issue("user-sub-123")
	require.NoError(t, err)

	// flip one byte in the payload
	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'a' {
		tampered[mid] = 'b'
	} else {
		tampered[mid] = 'a'
	}

	_, ok := sessions.VerifiedSubject(string(tampered))
	assert.False(t, ok)
}

func TestSessions_VerifiedSubject_WrongSecret(t *testing.T) {
	sessions := NewSessions(testSessionSecret, time.Hour)
	otherSessions := NewSessions([]byte("some-other-secret"), time.Hour)

	token, err := otherSessions.Issue("user-sub-123")
	require.NoError(t, err)

	_, ok := sessions.VerifiedSubject(token)
	assert.False(t, ok)
}

func TestSessions_VerifiedSubject_Garbage(t *testing.T) {
	sessions := NewSessions(testSessionSecret, time.Hour)

	_, ok := sessions.VerifiedSubject("not-a-credential")
	assert.False(t, ok)

	_, ok = sessions.VerifiedSubject("")
	assert.False(t, ok)
}

func TestSessions_Expiry(t *testing.T) {
	sessions := NewSessions(testSessionSecret, time.Hour)

	issuedAt := time.Now()
	sessions.now = func() time.Time { return issuedAt }

	token, err := sessions.Issue("user-sub-123")
	require.NoError(t, err)

	// still valid just before the expiry
	sessions.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	_, ok := sessions.VerifiedSubject(token)
	assert.True(t, ok)

	// expired
	sessions.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, ok = sessions.VerifiedSubject(token)
	assert.False(t, ok)
}

func TestSessions_ExtractAndCookie(t *testing.T) {
	sessions := NewSessions(testSessionSecret, time.Hour)

	token, err := sessions.Issue("user-sub-123")
	require.NoError(t, err)

	cookie := sessions.Cookie(token)
	require.NotNil(t, cookie)
	assert.Equal(t, SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest("GET", "/blog/all", nil)
	req.AddCookie(cookie)

	extracted, ok := sessions.Extract(req)
	require.True(t, ok)
	assert.Equal(t, token, extracted)

	noCookieReq := httptest.NewRequest("GET", "/blog/all", nil)
	_, ok = sessions.Extract(noCookieReq)
	assert.False(t, ok)
}

func TestSessions_Revoke(t *testing.T) {
	sessions := NewSessions(testSessionSecret, time.Hour)

	rr := httptest.NewRecorder()
	sessions.Revoke(rr)

	resp := rr.Result()
	defer resp.Body.Close()

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestSessions_DefaultTTL(t *testing.T) {
	sessions := NewSessions(testSessionSecret, 0)
	assert.Equal(t, DefaultSessionTTL, sessions.ttl)

	cookie := sessions.Cookie("whatever")
	assert.Equal(t, int(DefaultSessionTTL/time.Second), cookie.MaxAge)
}

func TestSessions_NoneAlgorithmRejected(t *testing.T) {
	sessions := NewSessions(testSessionSecret, time.Hour)

	// header {"alg":"none","typ":"JWT"} and payload {"sub":"user-sub-123"}
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ1c2VyLXN1Yi0xMjMifQ."
	_, ok := sessions.VerifiedSubject(unsigned)
	assert.False(t, ok)
}
