package webhook_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicolasHaas/pixndrive/pkg/client"
	"github.com/NicolasHaas/pixndrive/pkg/datastore"
	"github.com/NicolasHaas/pixndrive/pkg/model"
	"github.com/NicolasHaas/pixndrive/pkg/session"
	"github.com/NicolasHaas/pixndrive/pkg/webhook"
)

const accountsYAML = `
accounts:
  - email: ada@example.com
    name: Ada Lovelace
    phone: "+44 20 7946 0000"
    password: analytical
  - email: grace@example.com
    name: Grace Hopper
    password: cobol
`

func newStub(t *testing.T, withAccounts bool) *httptest.Server {
	t.Helper()
	var accounts []webhook.Account
	if withAccounts {
		entries, err := webhook.ParseAccountsYAML([]byte(accountsYAML))
		require.NoError(t, err)
		accounts, err = webhook.HashAccounts(entries)
		require.NoError(t, err)
	}
	srv, err := webhook.New(webhook.DefaultConfig(), accounts)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func login(t *testing.T, baseURL, email, password string) (*http.Response, model.LoginResponse) {
	t.Helper()
	body, _ := json.Marshal(model.LoginRequest{Email: email, Password: password})
	resp, err := http.Post(baseURL+"/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out model.LoginResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestLoginWithAccounts(t *testing.T) {
	ts := newStub(t, true)

	resp, out := login(t, ts.URL, "ada@example.com", "analytical")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.UserProfile{
		ID:    "1",
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Phone: "+44 20 7946 0000",
	}, out.User)
	assert.Len(t, out.Token, 64)

	resp, _ = login(t, ts.URL, "ada@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = login(t, ts.URL, "nobody@example.com", "x")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = login(t, ts.URL, "not-an-email", "x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOpenModeCreatesAccounts(t *testing.T) {
	ts := newStub(t, false)

	resp, first := login(t, ts.URL, "new@example.com", "anything")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "new", first.User.Name)
	assert.NotEmpty(t, first.User.ID)

	_, second := login(t, ts.URL, "NEW@example.com", "other")
	assert.Equal(t, first.User.ID, second.User.ID, "same account on repeat login")
	assert.NotEqual(t, first.Token, second.Token, "fresh token per login")
}

func TestFilesRequireBearer(t *testing.T) {
	ts := newStub(t, false)

	for _, auth := range []string{"", "Bearer ", "Bearer nope", "Token abc"} {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/files", nil)
		req.Header.Set("Authorization", auth)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "auth %q", auth)
	}
}

func uploadBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadValidation(t *testing.T) {
	ts := newStub(t, false)
	_, out := login(t, ts.URL, "u@example.com", "pw")

	post := func(body io.Reader, contentType string) int {
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/upload", body)
		req.Header.Set("Authorization", "Bearer "+out.Token)
		req.Header.Set("Content-Type", contentType)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusBadRequest, post(strings.NewReader("{}"), "application/json"))

	body, ct := uploadBody(t, "attachment", "a.jpg", []byte("x"))
	assert.Equal(t, http.StatusBadRequest, post(body, ct))
}

func TestUploadTooLarge(t *testing.T) {
	cfg := webhook.DefaultConfig()
	cfg.MaxUploadBytes = 1024
	srv, err := webhook.New(cfg, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, out := login(t, ts.URL, "u@example.com", "pw")
	body, ct := uploadBody(t, "file", "big.jpg", bytes.Repeat([]byte("x"), 4096))
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/upload", body)
	req.Header.Set("Authorization", "Bearer "+out.Token)
	req.Header.Set("Content-Type", ct)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		// The server may close the connection before the body is fully sent.
		return
	}
	resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)
}

func TestSessionClientAgainstStub(t *testing.T) {
	ts := newStub(t, true)
	ctx := context.Background()

	sess, err := session.New(ctx, datastore.NewMemory())
	require.NoError(t, err)
	c := client.New(client.Config{BaseURL: ts.URL, MockFallback: false, Timeout: 5 * time.Second}, sess)

	res, err := c.Login(ctx, "grace@example.com", "cobol")
	require.NoError(t, err)
	assert.False(t, res.Degraded())
	assert.Equal(t, "Grace Hopper", res.Value.User.Name)
	assert.Equal(t, res.Value.Token, sess.Token())

	files, err := c.ListFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, files.Value)

	up, err := c.UploadFile(ctx, model.NewLocalFile("beach.png", []byte("\x89PNG\r\n\x1a\nrest")))
	require.NoError(t, err)
	assert.True(t, up.Value.Success)
	assert.True(t, strings.HasPrefix(up.Value.FileURL, ts.URL+"/files/"), up.Value.FileURL)

	files, err = c.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files.Value, 1)
	assert.Equal(t, up.Value.FileID, files.Value[0].ID)
	assert.Equal(t, "image/png", files.Value[0].Type)
	assert.Equal(t, int64(12), files.Value[0].Size)

	// The returned URL resolves to the record for the owner.
	req, _ := http.NewRequest(http.MethodGet, up.Value.FileURL, nil)
	req.Header.Set("Authorization", sess.Authorization())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var rec model.FileRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	resp.Body.Close()
	assert.Equal(t, files.Value[0], rec)

	c.Logout(ctx)
	_, err = c.ListFiles(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	// Files are per account.
	_, err = c.Login(ctx, "ada@example.com", "analytical")
	require.NoError(t, err)
	files, err = c.ListFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, files.Value)
}

func TestMetricsAndHealth(t *testing.T) {
	ts := newStub(t, false)
	login(t, ts.URL, "m@example.com", "pw")

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	text := string(body)
	assert.Contains(t, text, `pixndrive_webhook_logins_total{result="ok"} 1`)
	assert.Contains(t, text, `pixndrive_webhook_requests_total{code="200",route="/login"} 1`)
	assert.Contains(t, text, "pixndrive_webhook_accounts 1")
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, err := webhook.New(webhook.DefaultConfig(), nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
