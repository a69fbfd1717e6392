// Package apiclient is the HTTP transport for the equipment statistics service.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/internal/logging"
	"github.com/chemflow/equipctl/schema"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Collaborator endpoints.
const (
	UploadPath   = "/upload/"
	RecordPath   = "/record/"
	DownloadPath = "/download/"
	LoginPath    = "/login/"
	SignupPath   = "/signup/"
	LogoutPath   = "/logout/"
)

// RequestIDHeader correlates a request with the collaborator's logs.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of a failed response is kept as a diagnostic.
const maxErrorBody = 512

// Client talks to the statistics service. It is safe for concurrent use.
type Client struct {
	baseURL    string
	scheme     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ contract.Collaborator = &Client{}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for baseURL. A rateLimit of 0 disables limiting.
func NewClient(baseURL, scheme string, rateLimit float64, burst int, opts ...Option) *Client {
	limit := rate.Inf
	if rateLimit > 0 {
		limit = rate.Limit(rateLimit)
	}
	if burst <= 0 {
		burst = 1
	}
	if scheme == "" {
		scheme = contract.DefaultAuthScheme
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		scheme:  scheme,
		// deadlines come from the caller's context so a streamed download is not cut short
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a client from the validated configuration.
func NewClientFromConfig(cfg *contract.Config) *Client {
	return NewClient(cfg.ServerURL, cfg.AuthScheme, cfg.RateLimit, cfg.RateBurst)
}

// Upload sends one CSV file as the multipart field "file".
func (c *Client) Upload(ctx context.Context, token string, file schema.ValidFile, content io.Reader) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	mediaType := file.MediaType
	if mediaType == "" {
		mediaType = "text/csv"
	}
	header.Set("Content-Type", mediaType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, &contract.PipelineError{Op: "upload", Kind: contract.ValidationFailure, Err: err}
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, &contract.PipelineError{Op: "upload", Kind: contract.ValidationFailure, Reason: "unreadable file", Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &contract.PipelineError{Op: "upload", Kind: contract.ValidationFailure, Err: err}
	}

	resp, err := c.do(ctx, "upload", http.MethodPost, UploadPath, token, mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	return readBody(ctx, "upload", resp)
}

// FetchRecords returns the raw history payload.
func (c *Client) FetchRecords(ctx context.Context, token string) ([]byte, error) {
	resp, err := c.do(ctx, "history", http.MethodGet, RecordPath, token, "", nil)
	if err != nil {
		return nil, err
	}
	return readBody(ctx, "history", resp)
}

// Download posts the export request and hands back the document stream.
// The caller must close the stream.
func (c *Client) Download(ctx context.Context, token string, req schema.ExportRequest) (io.ReadCloser, string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, "", &contract.PipelineError{Op: "export", Kind: contract.ValidationFailure, Err: err}
	}
	resp, err := c.do(ctx, "export", http.MethodPost, DownloadPath, token, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, req schema.LoginRequest) (schema.LoginResponse, error) {
	var out schema.LoginResponse
	payload, err := json.Marshal(req)
	if err != nil {
		return out, &contract.PipelineError{Op: "login", Kind: contract.ValidationFailure, Err: err}
	}
	resp, err := c.do(ctx, "login", http.MethodPost, LoginPath, "", "application/json", bytes.NewReader(payload))
	if err != nil {
		// the service answers bad credentials with 400
		var pe *contract.PipelineError
		if errors.As(err, &pe) && pe.Kind == contract.ServerFailure && pe.Status == http.StatusBadRequest {
			pe.Kind = contract.AuthFailure
		}
		return out, err
	}
	data, err := readBody(ctx, "login", resp)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, contract.NewShapeError("login", err)
	}
	if out.Token == "" {
		return out, contract.NewShapeError("login", errors.New("response has no token"))
	}
	return out, nil
}

// Signup registers a new account. The service replies 201 with an empty body.
func (c *Client) Signup(ctx context.Context, req schema.SignupRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return &contract.PipelineError{Op: "signup", Kind: contract.ValidationFailure, Err: err}
	}
	resp, err := c.do(ctx, "signup", http.MethodPost, SignupPath, "", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	_, err = readBody(ctx, "signup", resp)
	return err
}

// Logout invalidates the token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.do(ctx, "logout", http.MethodPost, LogoutPath, token, "application/json", nil)
	if err != nil {
		return err
	}
	_, err = readBody(ctx, "logout", resp)
	return err
}

// do sends one request and returns the response only for 2xx statuses.
// There are no retries.
func (c *Client) do(ctx context.Context, op, method, path, token, contentType string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &contract.PipelineError{Op: op, Kind: contract.TimeoutFailure, Reason: "rate limited", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &contract.PipelineError{Op: op, Kind: contract.NetworkFailure, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", c.scheme+" "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Debugw("collaborator request failed", "op", op, "path", path, "request_id", requestID, "error", err)
		return nil, classifyTransport(ctx, op, err)
	}
	logging.Debugw("collaborator response",
		"op", op, "path", path, "request_id", requestID,
		"status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close() //nolint:errcheck
	return nil, statusError(op, resp)
}

// classifyTransport maps a transport error to timeout or network.
func classifyTransport(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &contract.PipelineError{Op: op, Kind: contract.TimeoutFailure, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &contract.PipelineError{Op: op, Kind: contract.TimeoutFailure, Err: err}
	}
	return &contract.PipelineError{Op: op, Kind: contract.NetworkFailure, Err: err}
}

// errorBody is how the service and its auth layer describe failures.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// statusError builds an auth or server failure from a non-2xx response.
func statusError(op string, resp *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(excerpt))
	var eb errorBody
	if err := json.Unmarshal(excerpt, &eb); err == nil {
		switch {
		case eb.Error != "":
			msg = eb.Error
		case eb.Detail != "":
			msg = eb.Detail
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	kind := contract.ServerFailure
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		kind = contract.AuthFailure
	}
	return &contract.PipelineError{Op: op, Kind: kind, Status: resp.StatusCode, Err: errors.New(msg)}
}

// readBody drains and closes a successful response.
func readBody(ctx context.Context, op string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close() //nolint:errcheck
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, op, err)
	}
	return data, nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
