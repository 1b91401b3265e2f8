// Package client talks to the flashcard backend over its HTTP contract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBaseURL is where the backend listens in a local setup.
const DefaultBaseURL = "http://localhost:8000"

const maxErrorBody = 4 << 10

// API is a client for the flashcard backend.
type API struct {
	baseURL string
	http    *http.Client
	creds   Credentials
	log     *zap.Logger
}

// New returns a client for the backend at baseURL. A zero timeout leaves
// requests bounded only by their context.
func New(baseURL string, timeout time.Duration, creds Credentials, log *zap.Logger) *API {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if creds == nil {
		creds = StaticToken("")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
		log:     log,
	}
}

// request describes one backend call.
type request struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	token       string
	requireAuth bool
	header      http.Header
}

// do sends r and decodes a 2xx JSON response into out. Every failure comes
// back as an *Error.
func (a *API) do(ctx context.Context, r request, out interface{}) error {
	token := r.token
	if token == "" {
		tok, err := a.creds.Token(ctx)
		if err != nil {
			return &Error{Kind: KindAuth, Op: r.op, Err: err}
		}
		token = tok
	}
	if token == "" && r.requireAuth {
		return &Error{Kind: KindAuth, Op: r.op, Message: "no credential available, sign in first"}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, a.baseURL+r.path, r.body)
	if err != nil {
		return &Error{Kind: KindValidation, Op: r.op, Err: err}
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		a.log.Warn("backend request failed",
			zap.String("op", r.op),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return &Error{Kind: KindNetwork, Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	a.log.Debug("backend request",
		zap.String("op", r.op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return a.rejection(r.op, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: r.op, Status: resp.StatusCode, Err: err}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{
			Kind:    KindServer,
			Op:      r.op,
			Status:  resp.StatusCode,
			Message: "malformed response",
			Err:     err,
		}
	}
	return nil
}

func (a *API) rejection(op string, resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	kind := KindServer
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		kind = KindAuth
	}
	return &Error{
		Kind:    kind,
		Op:      op,
		Status:  resp.StatusCode,
		Message: errorMessage(resp.StatusCode, body),
	}
}

// errorMessage pulls a message out of an error body. The backend reports
// errors as {"detail": ...}; other shapes fall back to the raw text.
func errorMessage(status int, body []byte) string {
	var shaped struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &shaped); err == nil {
		if len(shaped.Detail) > 0 {
			var s string
			if json.Unmarshal(shaped.Detail, &s) == nil && s != "" {
				return s
			}
			var compact bytes.Buffer
			if json.Compact(&compact, shaped.Detail) == nil && compact.String() != "null" {
				return compact.String()
			}
		}
		if shaped.Message != "" {
			return shaped.Message
		}
		if shaped.Error != "" {
			return shaped.Error
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return fmt.Sprintf("unexpected status %d", status)
}

func jsonBody(v interface{}) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}
