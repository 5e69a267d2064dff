package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/usecase"
)

var (
	_ usecase.BasketGateway   = (*Client)(nil)
	_ usecase.CheckoutGateway = (*Client)(nil)
	_ usecase.StoreGateway    = (*Client)(nil)
	_ usecase.MenuGateway     = (*Client)(nil)
	_ usecase.MemberGateway   = (*Client)(nil)
	_ usecase.AddressGateway  = (*Client)(nil)
)

// Client talks JSON to the ordering backend. Every response body is an
// envelope whose code is zero on success.
type Client struct {
	BaseURL    string
	APIKey     string
	BusinessID int
	DeviceID   string
	Language   string
	HTTP       *http.Client
	Session    *Session
	Logger     *slog.Logger
}

func NewClient(baseURL, apiKey string, businessID int, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		BusinessID: businessID,
		DeviceID:   uuid.NewString(),
		Language:   "en_GB",
		HTTP:       &http.Client{Timeout: timeout},
		Session:    &Session{},
		Logger:     logger,
	}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// Error is a failed call. Status is the HTTP status; Code is the backend's
// own error code.
type Error struct {
	Status  int
	Code    int
	Message string
	Path    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: http %d", e.Path, e.Status)
	}
	return fmt.Sprintf("%s: %s (http %d, code %d)", e.Path, e.Message, e.Status, e.Code)
}

// Is makes 401 responses match usecase.ErrUnauthorized.
func (e *Error) Is(target error) bool {
	return target == usecase.ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type callOpts struct {
	auth        bool
	idempotency bool
}

func (c *Client) post(ctx context.Context, path string, body, out any, opts callOpts) error {
	used := c.Session.AccessToken()
	err := c.do(ctx, http.MethodPost, path, body, out, opts)
	if opts.auth && errors.Is(err, usecase.ErrUnauthorized) && c.Session.RefreshToken() != "" {
		if rerr := c.refresh(ctx, used); rerr != nil {
			return rerr
		}
		err = c.do(ctx, http.MethodPost, path, body, out, opts)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts callOpts) error {
	if opts.auth && c.Session.Expiring(time.Now()) {
		if err := c.refresh(ctx, c.Session.AccessToken()); err != nil {
			return err
		}
	}
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	req, err := http.NewRequestWithContext(ctx, method, base+"/"+c.Language+path, rd)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.APIKey)
	req.Header.Set("X-Request-ID", requestID)
	if c.DeviceID != "" {
		req.Header.Set("X-Device-ID", c.DeviceID)
	}
	if opts.idempotency {
		req.Header.Set("Idempotency-Key", requestID)
	}
	if tok := c.Session.AccessToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	c.Logger.Debug("api_request", "path", path, "status", resp.StatusCode, "request_id", requestID, "duration", time.Since(start))

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode >= 400 {
		e := &Error{Status: resp.StatusCode, Path: path}
		if decodeErr == nil {
			e.Code, e.Message = env.Code, env.Msg
		} else {
			e.Message = strings.TrimSpace(string(raw))
		}
		return e
	}
	if decodeErr != nil {
		return fmt.Errorf("%s: decode response: %w", path, decodeErr)
	}
	if env.Code != 0 {
		return &Error{Status: resp.StatusCode, Code: env.Code, Message: env.Msg, Path: path}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", path, err)
	}
	return nil
}
