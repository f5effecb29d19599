// Package api wraps every outbound call to the PneumoDetect service
// behind one request path with a uniform signal and error contract.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tahmid/pneumoscan/internal/notify"
	"github.com/tahmid/pneumoscan/pkg/models"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 30 * time.Second
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	signals    notify.Sink
	log        *zap.Logger
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Jar     http.CookieJar
	Signals notify.Sink
	Logger  *zap.Logger
}

func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	jar := cfg.Jar
	if jar == nil {
		j, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		jar = j
	}

	signals := cfg.Signals
	if signals == nil {
		signals = notify.Discard
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		signals: signals,
		log:     log,
	}, nil
}

// Call performs one request. Non-GET methods emit a loading signal
// before the request and exactly one terminal signal after it: a silent
// clear on success or a single error on failure. GET requests emit no
// loading signal but still surface failures as one error signal. The
// error is always re-raised so callers can branch on it.
func (c *Client) Call(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	loading := method != http.MethodGet
	if loading {
		c.signals.Emit(notify.Event{Signal: notify.LoadingStarted})
	}

	data, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		apiErr, ok := err.(*Error)
		if !ok {
			apiErr = &Error{Kind: KindNetwork, Err: err}
		}
		c.signals.Emit(notify.Event{Signal: notify.Failed, Message: apiErr.Message()})
		return nil, apiErr
	}

	if loading {
		c.signals.Emit(notify.Event{Signal: notify.LoadingCleared})
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}

	c.log.Debug("request complete",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := KindServerRejected
		if resp.StatusCode == http.StatusUnauthorized {
			kind = KindUnauthorized
		}
		return nil, &Error{
			Kind:   kind,
			Status: resp.StatusCode,
			Detail: extractDetail(data),
		}
	}

	return data, nil
}

// extractDetail pulls the structured error message the service places
// in the "detail" field. Anything that is not a plain string (e.g. a
// field-level validation list) falls back to the generic message.
func extractDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err != nil {
		return ""
	}
	return detail
}

// Me probes the current session. Success means the session cookie is
// still valid.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	data, err := c.Call(ctx, http.MethodGet, "/auth/me", nil, "")
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, &Error{Kind: KindNetwork, Err: fmt.Errorf("decode user: %w", err)}
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	return c.postJSON(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) Register(ctx context.Context, username, email, password, confirm string) (string, error) {
	return c.postJSON(ctx, "/auth/register", map[string]string{
		"username":         username,
		"email":            email,
		"password":         password,
		"confirm_password": confirm,
	})
}

func (c *Client) VerifyEmail(ctx context.Context, email, token string) (string, error) {
	query := url.Values{}
	query.Set("email", email)
	query.Set("token", token)

	data, err := c.Call(ctx, http.MethodGet, "/auth/verify-email?"+query.Encode(), nil, "")
	if err != nil {
		return "", err
	}
	return decodeMessage(data)
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.Call(ctx, http.MethodPost, "/auth/logout", nil, "")
	return err
}

// Predict submits a staged scan for an authenticated analysis. The
// result is persisted server-side against the session's user.
func (c *Client) Predict(ctx context.Context, filename string, image []byte) (*models.PredictionResult, error) {
	return c.predict(ctx, "/predict", filename, image)
}

// GuestPredict analyzes without a session; nothing is persisted.
func (c *Client) GuestPredict(ctx context.Context, filename string, image []byte) (*models.PredictionResult, error) {
	return c.predict(ctx, "/guest-predict", filename, image)
}

func (c *Client) predict(ctx context.Context, path, filename string, image []byte) (*models.PredictionResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Err: fmt.Errorf("create file part: %w", err)}
	}
	if _, err := part.Write(image); err != nil {
		return nil, &Error{Kind: KindValidation, Err: fmt.Errorf("write file part: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return nil, &Error{Kind: KindValidation, Err: fmt.Errorf("close multipart writer: %w", err)}
	}

	data, err := c.Call(ctx, http.MethodPost, path, body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var result models.PredictionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &Error{Kind: KindNetwork, Err: fmt.Errorf("decode prediction: %w", err)}
	}
	return &result, nil
}

// History fetches the full prediction history in one call.
func (c *Client) History(ctx context.Context) ([]models.HistoryEntry, error) {
	data, err := c.Call(ctx, http.MethodGet, "/history", nil, "")
	if err != nil {
		return nil, err
	}
	var resp models.HistoryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &Error{Kind: KindNetwork, Err: fmt.Errorf("decode history: %w", err)}
	}
	return resp.History, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Kind: KindValidation, Err: err}
	}
	data, err := c.Call(ctx, http.MethodPost, path, bytes.NewReader(encoded), "application/json")
	if err != nil {
		return "", err
	}
	return decodeMessage(data)
}

func decodeMessage(data []byte) (string, error) {
	var resp models.MessageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &Error{Kind: KindNetwork, Err: fmt.Errorf("decode message: %w", err)}
	}
	return resp.Message, nil
}
