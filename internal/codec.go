package internal

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const handleScheme = "blob:chat-session/"

// DisplayHandle references image bytes held in memory for rendering. It is
// only meaningful inside the process that created it and is never persisted.
type DisplayHandle struct {
	URL string
}

// IsZero reports whether the handle points at nothing
func (h DisplayHandle) IsZero() bool {
	return h.URL == ""
}

// File is an attachment read fully into memory
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// IsImage reports whether the file carries an image MIME type
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

// WirePart is a binary multipart part of an outbound request
type WirePart struct {
	Field    string
	FileName string
	MimeType string
	Data     []byte
}

type blob struct {
	mimeType string
	data     []byte
}

// HandleRegistry owns the bytes behind display handles
type HandleRegistry struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewHandleRegistry creates an empty registry
func NewHandleRegistry() *HandleRegistry {
	return &HandleRegistry{blobs: make(map[string]blob)}
}

// Create registers a copy of data and returns a handle to it
func (r *HandleRegistry) Create(data []byte, mimeType string) DisplayHandle {
	buf := make([]byte, len(data))
	copy(buf, data)

	url := handleScheme + uuid.NewString()
	r.mu.Lock()
	r.blobs[url] = blob{mimeType: mimeType, data: buf}
	r.mu.Unlock()
	return DisplayHandle{URL: url}
}

// Open returns a reader over the handle's bytes and their MIME type
func (r *HandleRegistry) Open(h DisplayHandle) (io.Reader, string, error) {
	r.mu.RLock()
	b, ok := r.blobs[h.URL]
	r.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("unknown display handle %q", h.URL)
	}
	return bytes.NewReader(b.data), b.mimeType, nil
}

// Revoke releases the bytes behind h. Revoking an unknown handle is a no-op.
func (r *HandleRegistry) Revoke(h DisplayHandle) {
	r.mu.Lock()
	delete(r.blobs, h.URL)
	r.mu.Unlock()
}

// Len returns the number of live handles
func (r *HandleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}

// Materialize writes the handle's bytes to a file in dir so external viewers can open it
func (r *HandleRegistry) Materialize(h DisplayHandle, dir, name string) (string, error) {
	rd, mimeType, err := r.Open(h)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = strings.TrimPrefix(h.URL, handleScheme)
	}
	if filepath.Ext(name) == "" {
		if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
			name += exts[0]
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}
	path := filepath.Join(dir, name)
	data, _ := io.ReadAll(rd)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

// Codec converts image payloads between their wire, storage and display forms
type Codec struct {
	handles  *HandleRegistry
	maxBytes int64
}

// NewCodec creates a codec. maxBytes <= 0 disables the size limit.
func NewCodec(handles *HandleRegistry, maxBytes int64) *Codec {
	if handles == nil {
		handles = NewHandleRegistry()
	}
	return &Codec{handles: handles, maxBytes: maxBytes}
}

// Handles exposes the registry backing this codec's display handles
func (c *Codec) Handles() *HandleRegistry {
	return c.handles
}

// ReadFile reads an attachment from disk
func (c *Codec) ReadFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if c.maxBytes > 0 && info.Size() > c.maxBytes {
		return File{}, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrAttachmentTooLarge, filepath.Base(path), info.Size(), c.maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read attachment: %w", err)
	}
	name := filepath.Base(path)
	return File{Name: name, MimeType: detectMimeType(name, data), Data: data}, nil
}

// detectMimeType prefers the extension and falls back to content sniffing
func detectMimeType(name string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
		return t
	}
	sniffed := http.DetectContentType(data)
	if mediaType, _, err := mime.ParseMediaType(sniffed); err == nil {
		return mediaType
	}
	return sniffed
}

// EncodeForStorage produces the JSON-safe payload plus a display handle
func (c *Codec) EncodeForStorage(f File) (*Attachment, error) {
	if !f.IsImage() {
		return nil, fmt.Errorf("not an image: %s (%s)", f.Name, f.MimeType)
	}
	return &Attachment{
		Data:     base64.StdEncoding.EncodeToString(f.Data),
		MimeType: f.MimeType,
		Handle:   c.handles.Create(f.Data, f.MimeType),
	}, nil
}

// EncodeForWire produces a multipart part straight from the source file
func (c *Codec) EncodeForWire(f File, field string) WirePart {
	return WirePart{
		Field:    field,
		FileName: f.Name,
		MimeType: f.MimeType,
		Data:     f.Data,
	}
}

// DecodeToHandle turns a stored payload back into a display handle. The
// payload is not modified. A malformed payload yields an empty handle and a
// DecodeError the caller is expected to log and move past.
func (c *Codec) DecodeToHandle(data, mimeType string) (DisplayHandle, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return DisplayHandle{}, &DecodeError{MimeType: mimeType, Err: err}
	}
	return c.handles.Create(raw, mimeType), nil
}

// DataURL renders raw bytes as a data: URL for transports that embed images inline
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
