package testutil

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// CapturedFile is a file part received by the fake backend
type CapturedFile struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

// CapturedRequest is what the fake backend saw for one request
type CapturedRequest struct {
	Path        string
	ContentType string
	Message     string
	History     []map[string]interface{}
	SessionID   string
	Files       []CapturedFile
}

// FakeReply scripts one response of the fake backend
type FakeReply struct {
	Status    int
	Reply     string
	SessionID string
	// Error is sent as {"error": ...} when Status is not 2xx
	Error string
	// Body, when set, is written verbatim instead of the JSON above
	Body string
}

// FakeBackend is an httptest server speaking the chat proxy protocol
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	replies  []FakeReply
	requests []CapturedRequest
}

// NewFakeBackend starts a backend answering with replies in order. Once the
// script runs out the last reply is repeated.
func NewFakeBackend(t *testing.T, replies ...FakeReply) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{replies: replies}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.handle))
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the backend's base URL
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// Requests returns the requests received so far
func (fb *FakeBackend) Requests() []CapturedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]CapturedRequest, len(fb.requests))
	copy(out, fb.requests)
	return out
}

func (fb *FakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusOK)
		return
	}

	captured, err := capture(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	fb.requests = append(fb.requests, captured)
	reply := FakeReply{Status: http.StatusOK, Reply: "ok"}
	if len(fb.replies) > 0 {
		reply = fb.replies[0]
		if len(fb.replies) > 1 {
			fb.replies = fb.replies[1:]
		}
	}
	fb.mu.Unlock()

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	switch {
	case reply.Body != "":
		_, _ = io.WriteString(w, reply.Body)
	case status >= 200 && status < 300:
		body := map[string]string{"reply": reply.Reply}
		if reply.SessionID != "" {
			body["sessionId"] = reply.SessionID
		}
		_ = json.NewEncoder(w).Encode(body)
	case reply.Error != "":
		_ = json.NewEncoder(w).Encode(map[string]string{"error": reply.Error})
	}
}

func capture(r *http.Request) (CapturedRequest, error) {
	c := CapturedRequest{Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")}
	mediaType, params, err := mime.ParseMediaType(c.ContentType)
	if err != nil {
		return c, err
	}

	if mediaType == "application/json" {
		var body struct {
			Message   string                   `json:"message"`
			History   []map[string]interface{} `json:"history"`
			SessionID string                   `json:"sessionId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return c, err
		}
		c.Message, c.History, c.SessionID = body.Message, body.History, body.SessionID
		return c, nil
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		return c, nil
	}
	mr := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return c, err
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return c, err
		}
		if part.FileName() != "" {
			c.Files = append(c.Files, CapturedFile{
				Field:       part.FormName(),
				FileName:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Data:        data,
			})
			continue
		}
		switch part.FormName() {
		case "message":
			c.Message = string(data)
		case "sessionId":
			c.SessionID = string(data)
		case "history":
			if err := json.Unmarshal(data, &c.History); err != nil {
				return c, err
			}
		}
	}
	return c, nil
}
