package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-account/pkg/account"
	"github.com/tendant/simple-account/pkg/account/api"
	"github.com/tendant/simple-account/pkg/notification"
	"github.com/tendant/simple-account/pkg/sessions"
)

type testServer struct {
	*httptest.Server
	mock *notification.MockNotifier
}

func newTestServer(t *testing.T, opts ...api.Option) *testServer {
	t.Helper()

	mock := &notification.MockNotifier{}
	nm := notification.NewNotificationManager()
	nm.RegisterNotifier(notification.EmailSystem, mock)
	for _, noticeType := range []notification.NoticeType{
		notification.AccountValidationNotice,
		notification.AccountRecoveryNotice,
		notification.PasswordResetNotice,
	} {
		err := nm.RegisterNotification(noticeType, notification.EmailSystem, notification.NoticeTemplate{
			Subject: string(noticeType),
		})
		require.NoError(t, err)
	}

	repo := account.NewInMemoryRepository()
	accountService, err := account.NewAccountService(repo, nm, "http://example.com", "test-signing-secret")
	require.NoError(t, err)

	sessionService := sessions.NewService(sessions.NewInMemoryRepository())
	cookies := sessions.NewCookieSetter(true, false)
	handle := api.NewHandle(accountService, sessionService, cookies, opts...)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware(sessionService, cookies))
		handle.RegisterRoutes(r)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &testServer{Server: server, mock: mock}
}

// newClient returns a client with a cookie jar that reports redirects instead
// of following them, so the exchange handshakes can be observed step by step.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func signup(t *testing.T, client *http.Client, server *testServer, username string) {
	t.Helper()
	resp := postJSON(t, client, server.URL+"/api/signup", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "sup3r-s3cret",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

// sentLinkPath returns the path of the most recently emailed link.
func sentLinkPath(t *testing.T, server *testServer) string {
	t.Helper()
	require.NotEmpty(t, server.mock.SentNotifications)
	last := server.mock.SentNotifications[len(server.mock.SentNotifications)-1]
	for _, key := range []string{"ValidationLink", "RecoveryLink", "ResetLink"} {
		if link, ok := last.Data[key]; ok {
			u, err := url.Parse(link)
			require.NoError(t, err)
			return u.Path
		}
	}
	t.Fatal("no link in last notification")
	return ""
}

func TestSignupLoginLogout(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	resp := postJSON(t, client, server.URL+"/api/signup", map[string]string{
		"username": "Ashley",
		"email":    "ashley@example.com",
		"password": "sup3r-s3cret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created api.UserResponse
	decodeJSON(t, resp, &created)
	require.NotNil(t, created.User)
	assert.Equal(t, "ashley", created.User.Username)

	// Signup starts a session; the delete endpoint accepts the cookie.
	resp = postJSON(t, client, server.URL+"/api/logout", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, client, server.URL+"/api/login", map[string]string{
		"username": "ashley",
		"password": "wrong",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, client, server.URL+"/api/login", map[string]string{
		"username": "Ashley",
		"password": "sup3r-s3cret",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loggedIn api.UserResponse
	decodeJSON(t, resp, &loggedIn)
	assert.Equal(t, created.User.ID, loggedIn.User.ID)
}

func TestSignupDisabled(t *testing.T) {
	server := newTestServer(t, api.WithRegistrationEnabled(false))
	client := newClient(t)

	resp := postJSON(t, client, server.URL+"/api/signup", map[string]string{
		"username": "ashley",
		"email":    "ashley@example.com",
		"password": "sup3r-s3cret",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUsernameCheck(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)
	signup(t, client, server, "ashley")

	tests := []struct {
		username string
		want     string
	}{
		{"ashley", "false"},
		{"someone-else", "true"},
		{"a", "false"},
	}

	for _, tt := range tests {
		resp, err := client.Get(server.URL + "/api/username-check?username=" + tt.username)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, tt.want, strings.TrimSpace(string(body)), "username %q", tt.username)
	}
}

func TestValidationEndpoint(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)
	signup(t, client, server, "ashley")

	path := sentLinkPath(t, server)
	require.True(t, strings.HasPrefix(path, "/validation/"))

	resp, err := client.Get(server.URL + path)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first api.ValidationResponse
	decodeJSON(t, resp, &first)
	require.NotNil(t, first.User)
	assert.True(t, first.Executed)
	assert.True(t, first.User.IsVerified)

	// Clicking the same link again is a success that changed nothing.
	resp, err = client.Get(server.URL + path)
	require.NoError(t, err)
	var second api.ValidationResponse
	decodeJSON(t, resp, &second)
	require.NotNil(t, second.User)
	assert.False(t, second.Executed)

	// A tampered token resolves the user but executes nothing.
	tampered := path[:len(path)-1]
	resp, err = client.Get(server.URL + tampered)
	require.NoError(t, err)
	var third api.ValidationResponse
	decodeJSON(t, resp, &third)
	assert.False(t, third.Executed)
}

func TestDeleteRequiresAuthentication(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	resp := postJSON(t, client, server.URL+"/api/account/delete", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeleteAndRecoveryExchange(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)
	signup(t, client, server, "ashley")

	resp := postJSON(t, client, server.URL+"/api/account/delete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted api.DeleteResponse
	decodeJSON(t, resp, &deleted)
	require.True(t, strings.HasPrefix(deleted.RecoveryLink, "/recovery/"))

	// The account is gone from the login path.
	resp = postJSON(t, client, server.URL+"/api/login", map[string]string{
		"username": "ashley",
		"password": "sup3r-s3cret",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Step one: the real token is exchanged for a placeholder redirect, so the
	// token never reaches a Referer header.
	resp, err := client.Get(server.URL + deleted.RecoveryLink)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.True(t, strings.HasSuffix(location, "/_account_recovery_token"))
	assert.NotContains(t, location, strings.Split(deleted.RecoveryLink, "/")[3])

	// Step two: the placeholder request replays the session-stored token and
	// restores the account.
	resp, err = client.Get(server.URL + location)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var recovered api.ValidationResponse
	decodeJSON(t, resp, &recovered)
	require.NotNil(t, recovered.User)
	assert.True(t, recovered.Executed)
	assert.Nil(t, recovered.User.DeletedAt)

	// Replaying the placeholder is a no-op success.
	resp, err = client.Get(server.URL + location)
	require.NoError(t, err)
	var replayed api.ValidationResponse
	decodeJSON(t, resp, &replayed)
	assert.False(t, replayed.Executed)

	resp = postJSON(t, client, server.URL+"/api/login", map[string]string{
		"username": "ashley",
		"password": "sup3r-s3cret",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRecoveryRejectsBadTokens(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)
	signup(t, client, server, "ashley")

	resp := postJSON(t, client, server.URL+"/api/account/delete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted api.DeleteResponse
	decodeJSON(t, resp, &deleted)

	parts := strings.Split(deleted.RecoveryLink, "/")
	require.Len(t, parts, 4)
	uid := parts[2]

	tests := []struct {
		name string
		path string
	}{
		{"tampered token", deleted.RecoveryLink[:len(deleted.RecoveryLink)-1]},
		{"unknown user", "/recovery/bm90LWEtdXNlcg/" + parts[3]},
		{"placeholder without exchange", "/recovery/" + uid + "/_account_recovery_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A fresh client carries no session-stored token.
			resp, err := newClient(t).Get(server.URL + tt.path)
			require.NoError(t, err)
			require.Equal(t, http.StatusNotFound, resp.StatusCode)
			var body api.ErrorResponse
			decodeJSON(t, resp, &body)
			assert.Equal(t, "The user could not be found.", body.Error)
		})
	}
}

func TestPasswordResetExchange(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)
	signup(t, client, server, "ashley")

	resp := postJSON(t, client, server.URL+"/api/password-reset", map[string]string{
		"email": "ashley@example.com",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	path := sentLinkPath(t, server)
	require.True(t, strings.HasPrefix(path, "/reset/"))

	// The confirm endpoint refuses the raw-token form of the URL.
	resp = postJSON(t, client, server.URL+path, map[string]string{
		"new_password": "new-passw0rd",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err := client.Get(server.URL + path)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasSuffix(location, "/_password_reset_token"))

	resp, err = client.Get(server.URL + location)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, client, server.URL+location, map[string]string{
		"new_password": "new-passw0rd",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, client, server.URL+"/api/login", map[string]string{
		"username": "ashley",
		"password": "sup3r-s3cret",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, client, server.URL+"/api/login", map[string]string{
		"username": "ashley",
		"password": "new-passw0rd",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)

	resp := postJSON(t, client, server.URL+"/api/password-reset", map[string]string{
		"email": "nobody@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body api.MessageResponse
	decodeJSON(t, resp, &body)
	assert.NotEmpty(t, body.Message)
	assert.Empty(t, server.mock.SentNotifications)
}

func TestPasswordChange(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)
	signup(t, client, server, "ashley")

	resp := postJSON(t, client, server.URL+"/api/password-change", map[string]string{
		"current_password": "wrong",
		"new_password":     "new-passw0rd",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, client, server.URL+"/api/password-change", map[string]string{
		"current_password": "sup3r-s3cret",
		"new_password":     "new-passw0rd",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, client, server.URL+"/api/login", map[string]string{
		"username": "ashley",
		"password": "new-passw0rd",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRenewValidationLink(t *testing.T) {
	server := newTestServer(t)
	client := newClient(t)
	signup(t, client, server, "ashley")
	require.Len(t, server.mock.SentNotifications, 1)

	resp := postJSON(t, client, server.URL+"/api/renew-validation-link", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var renewed api.ValidationResponse
	decodeJSON(t, resp, &renewed)
	assert.True(t, renewed.Executed)
	require.Len(t, server.mock.SentNotifications, 2)

	// Once verified, renewing is a no-op.
	resp, err := client.Get(server.URL + sentLinkPath(t, server))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, client, server.URL+"/api/renew-validation-link", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var again api.ValidationResponse
	decodeJSON(t, resp, &again)
	assert.False(t, again.Executed)
	assert.Len(t, server.mock.SentNotifications, 2)
}
