// Package client implements the PixNDrive session client: it attaches the
// session's bearer token to calls against the webhook backend and, when
// configured to, substitutes demo data for calls that fail.
//
// The fallback exists so the app stays usable without a backend. It is not
// a resilience mechanism: every substituted value comes back as a Result
// with Source == SourceMock so callers can tell it apart from real data.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/NicolasHaas/pixndrive/pkg/model"
	"github.com/NicolasHaas/pixndrive/pkg/session"
	"github.com/NicolasHaas/pixndrive/pkg/version"
)

// DefaultBaseURL is the placeholder webhook root used when nothing is configured.
const DefaultBaseURL = "https://your-n8n-instance.com/webhook"

// maxResponseBytes caps how much of a reply body is read.
const maxResponseBytes = 8 << 20

// Config holds session client configuration.
type Config struct {
	BaseURL      string           // webhook root, e.g. "https://n8n.example.com/webhook"
	MockFallback bool             // substitute demo data when a call fails
	Timeout      time.Duration    // per-request timeout (0 = none)
	HTTPClient   *http.Client     // optional; overrides Timeout
	Now          func() time.Time // clock for mock tokens and ids (nil = time.Now)
}

// DefaultConfig returns the demo configuration: placeholder backend with the
// mock fallback on.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		MockFallback: true,
		Timeout:      30 * time.Second,
	}
}

// Client is the session client. Operations are independent and may run
// concurrently; no ordering holds between concurrent calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
	fallback   bool

	mock  *MockBackend
	blobs *Blobs
	stats Stats
}

// New creates a Client bound to sess.
func New(cfg Config, sess *session.Session) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: httpClient,
		session:    sess,
		fallback:   cfg.MockFallback,
		mock:       NewMockBackend(cfg.Now),
		blobs:      NewBlobs(),
	}
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session { return c.session }

// Blobs returns the registry behind mock upload URLs.
func (c *Client) Blobs() *Blobs { return c.blobs }

// Stats returns live/mock/failed counters per operation.
func (c *Client) Stats() StatsSnapshot { return c.stats.Snapshot() }

// Login posts credentials to /login and stores the returned token. With the
// fallback on it never returns an error: a failed call yields the demo
// profile and a mock token, which is stored the same way.
func (c *Client) Login(ctx context.Context, email, password string) (Result[model.LoginResponse], error) {
	resp, err := c.login(ctx, email, password)
	if err != nil {
		if !c.fallback {
			c.stats.fail(OpLogin)
			return Result[model.LoginResponse]{}, err
		}
		slog.Warn("login failed, using mock profile", "op", OpLogin.String(), "err", err)
		resp = c.mock.Login(email)
		c.storeToken(ctx, resp.Token)
		c.stats.record(OpLogin, SourceMock)
		return mocked(resp, err), nil
	}

	c.storeToken(ctx, resp.Token)
	c.stats.record(OpLogin, SourceLive)
	slog.Debug("logged in", "user", resp.User.ID)
	return live(resp), nil
}

func (c *Client) login(ctx context.Context, email, password string) (model.LoginResponse, error) {
	body, err := json.Marshal(model.LoginRequest{Email: email, Password: password})
	if err != nil {
		return model.LoginResponse{}, fmt.Errorf("client: marshal login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return model.LoginResponse{}, fmt.Errorf("%w: build login request: %w", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp model.LoginResponse
	if err := c.do(req, &resp); err != nil {
		return model.LoginResponse{}, err
	}
	if resp.Token == "" {
		return model.LoginResponse{}, fmt.Errorf("%w: login reply has no token", ErrBadResponse)
	}
	return resp, nil
}

// storeToken persists a token; a store failure is logged, not returned,
// since login has already succeeded from the caller's point of view.
func (c *Client) storeToken(ctx context.Context, token string) {
	if err := c.session.Set(ctx, token); err != nil {
		slog.Error("persist token", "err", err)
	}
}

// ListFiles fetches /files with the current bearer token. Without a token
// the Authorization header is sent empty.
func (c *Client) ListFiles(ctx context.Context) (Result[[]model.FileRecord], error) {
	files, err := c.listFiles(ctx)
	if err != nil {
		if !c.fallback {
			c.stats.fail(OpListFiles)
			return Result[[]model.FileRecord]{}, err
		}
		slog.Warn("list files failed, using mock files", "op", OpListFiles.String(), "err", err)
		c.stats.record(OpListFiles, SourceMock)
		return mocked(c.mock.Files(), err), nil
	}
	c.stats.record(OpListFiles, SourceLive)
	slog.Debug("listed files", "count", len(files))
	return live(files), nil
}

func (c *Client) listFiles(ctx context.Context) ([]model.FileRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build files request: %w", ErrNetwork, err)
	}
	req.Header.Set("Authorization", c.session.Authorization())
	req.Header.Set("Content-Type", "application/json")

	var resp model.FilesResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Files == nil {
		return []model.FileRecord{}, nil
	}
	return resp.Files, nil
}

// UploadFile posts f as multipart field "file" to /upload. The mock reply
// points at a blob URL that resolves to f through Blobs.
func (c *Client) UploadFile(ctx context.Context, f model.LocalFile) (Result[model.UploadResponse], error) {
	resp, err := c.uploadFile(ctx, f)
	if err != nil {
		if !c.fallback {
			c.stats.fail(OpUpload)
			return Result[model.UploadResponse]{}, err
		}
		slog.Warn("upload failed, using mock response", "op", OpUpload.String(), "file", f.Name, "err", err)
		c.stats.record(OpUpload, SourceMock)
		return mocked(c.mock.Upload(c.blobs.Register(f)), err), nil
	}
	c.stats.record(OpUpload, SourceLive)
	slog.Debug("uploaded file", "file", f.Name, "id", resp.FileID)
	return live(resp), nil
}

func (c *Client) uploadFile(ctx context.Context, f model.LocalFile) (model.UploadResponse, error) {
	body, contentType, err := multipartBody(f)
	if err != nil {
		return model.UploadResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", body)
	if err != nil {
		return model.UploadResponse{}, fmt.Errorf("%w: build upload request: %w", ErrNetwork, err)
	}
	req.Header.Set("Authorization", c.session.Authorization())
	req.Header.Set("Content-Type", contentType)

	var resp model.UploadResponse
	if err := c.do(req, &resp); err != nil {
		return model.UploadResponse{}, err
	}
	return resp, nil
}

// quoteEscaper escapes a quoted-string parameter the way mime/multipart does;
// form readers undo only these two escapes.
var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(f model.LocalFile) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fileType := f.Type
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", fileType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("client: create form part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", fmt.Errorf("client: write form part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("client: close form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// Logout clears the token in memory and in the store. It makes no network
// call and never fails; a store error is only logged.
func (c *Client) Logout(ctx context.Context) {
	if err := c.session.Clear(ctx); err != nil {
		slog.Error("clear persisted token", "err", err)
	}
}

// do sends req and decodes a 2xx JSON reply into out.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s reply: %w", ErrNetwork, req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s reply: %w", ErrBadResponse, req.URL.Path, err)
	}
	return nil
}
