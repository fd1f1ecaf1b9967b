package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	imageField      = "imageFiles"
	attachmentField = "attachment"

	defaultRequestTimeout = 60 * time.Second
)

// Request is one outbound exchange with the backend
type Request struct {
	Message    string
	History    []APITurn
	SessionID  string
	Images     []WirePart
	Attachment *WirePart
}

// HasParts reports whether the request carries binary parts
func (r Request) HasParts() bool {
	return len(r.Images) > 0 || r.Attachment != nil
}

// Reply is the backend's answer to a Request
type Reply struct {
	Text      string
	SessionID string
}

// Transport delivers a request to the remote model and returns its reply
type Transport interface {
	Send(ctx context.Context, req Request) (Reply, error)
}

// jsonRequest is the body sent when a request carries no binary parts
type jsonRequest struct {
	Message   string    `json:"message"`
	History   []APITurn `json:"history"`
	SessionID string    `json:"sessionId,omitempty"`
}

// replyPayload is the expected success body
type replyPayload struct {
	Reply     *string `json:"reply"`
	SessionID string  `json:"sessionId,omitempty"`
}

// errorPayload is the optional body of a failed request
type errorPayload struct {
	Error string `json:"error"`
}

// ProxyTransport talks to the chat proxy backend over HTTP
type ProxyTransport struct {
	baseURL    string
	path       string
	httpClient *http.Client
}

// ProxyOption configures a ProxyTransport
type ProxyOption func(*ProxyTransport)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(httpClient *http.Client) ProxyOption {
	return func(t *ProxyTransport) {
		t.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout of the default client
func WithTimeout(timeout time.Duration) ProxyOption {
	return func(t *ProxyTransport) {
		if timeout > 0 {
			t.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewProxyTransport creates a transport posting to baseURL + the variant's path
func NewProxyTransport(baseURL string, v Variant, opts ...ProxyOption) (*ProxyTransport, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend: base URL must not be empty")
	}
	t := &ProxyTransport{
		baseURL:    baseURL,
		path:       v.Path,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// URL returns the endpoint requests are posted to
func (t *ProxyTransport) URL() string {
	return t.baseURL + t.path
}

// Send posts req as multipart when it carries files and as JSON otherwise
func (t *ProxyTransport) Send(ctx context.Context, req Request) (Reply, error) {
	var (
		body        []byte
		contentType string
		err         error
	)
	if req.HasParts() {
		body, contentType, err = encodeMultipart(req)
	} else {
		body, contentType, err = encodeJSON(req)
	}
	if err != nil {
		return Reply{}, err
	}

	url := t.URL()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("backend: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	LogDebug("POST %s (%s, %d bytes, %d history turns)", url, contentType, len(body), len(req.History))

	raw, err := t.do(httpReq, url)
	if err != nil {
		return Reply{}, err
	}

	var payload replyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Reply{}, fmt.Errorf("backend: decode response: %w", err)
	}
	if payload.Reply == nil {
		return Reply{}, errors.New("backend: response has no reply")
	}
	return Reply{Text: *payload.Reply, SessionID: payload.SessionID}, nil
}

// Ping checks that the backend answers HTTP at all. Any status counts as reachable.
func (t *ProxyTransport) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, t.baseURL, nil)
	if err != nil {
		return fmt.Errorf("backend: create request: %w", err)
	}
	res, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s unreachable: %w", t.baseURL, err)
	}
	_ = res.Body.Close()
	LogDebug("HEAD %s -> %d", t.baseURL, res.StatusCode)
	return nil
}

func (t *ProxyTransport) do(req *http.Request, url string) ([]byte, error) {
	res, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		statusErr := &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
		var ep errorPayload
		if json.Unmarshal(buf, &ep) == nil {
			statusErr.Message = strings.TrimSpace(ep.Error)
		}
		return nil, statusErr
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("backend: read response body: %w", err)
	}
	return buf, nil
}

func encodeJSON(req Request) ([]byte, string, error) {
	history := req.History
	if history == nil {
		history = []APITurn{}
	}
	body, err := json.Marshal(jsonRequest{
		Message:   req.Message,
		History:   history,
		SessionID: req.SessionID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("backend: marshal request: %w", err)
	}
	return body, "application/json", nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(req Request) ([]byte, string, error) {
	history := req.History
	if history == nil {
		history = []APITurn{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, "", fmt.Errorf("backend: marshal history: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("message", req.Message); err != nil {
		return nil, "", fmt.Errorf("backend: write message field: %w", err)
	}
	if err := w.WriteField("history", string(historyJSON)); err != nil {
		return nil, "", fmt.Errorf("backend: write history field: %w", err)
	}
	if req.SessionID != "" {
		if err := w.WriteField("sessionId", req.SessionID); err != nil {
			return nil, "", fmt.Errorf("backend: write sessionId field: %w", err)
		}
	}

	parts := req.Images
	if req.Attachment != nil {
		parts = append(parts[:len(parts):len(parts)], *req.Attachment)
	}
	for _, part := range parts {
		if err := writeFilePart(w, part); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("backend: close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, part WirePart) error {
	mimeType := part.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(part.Field), quoteEscaper.Replace(part.FileName)))
	h.Set("Content-Type", mimeType)

	pw, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("backend: create %s part: %w", part.Field, err)
	}
	if _, err := pw.Write(part.Data); err != nil {
		return fmt.Errorf("backend: write %s part: %w", part.Field, err)
	}
	return nil
}
