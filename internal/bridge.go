package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultMaxImages is the number of images the backend accepts per request
	DefaultMaxImages = 3
	// DefaultImagePrompt stands in for the text of an image-only message
	DefaultImagePrompt = "Describe this image."
	// DefaultFilePrompt stands in for the text of a file-only message
	DefaultFilePrompt = "Please review the attached file."
	// DefaultFailureNotice is shown when the backend gives no error text of its own
	DefaultFailureNotice = "Sorry, something went wrong while processing your message."
)

// BridgeOptions tunes a Bridge. Zero values fall back to the defaults above.
type BridgeOptions struct {
	MaxImages     int
	ImagePrompt   string
	FilePrompt    string
	FailureNotice string
}

func (o BridgeOptions) withDefaults() BridgeOptions {
	if o.MaxImages <= 0 {
		o.MaxImages = DefaultMaxImages
	}
	if o.ImagePrompt == "" {
		o.ImagePrompt = DefaultImagePrompt
	}
	if o.FilePrompt == "" {
		o.FilePrompt = DefaultFilePrompt
	}
	if o.FailureNotice == "" {
		o.FailureNotice = DefaultFailureNotice
	}
	return o
}

// SendRequest is the user's input for one cycle
type SendRequest struct {
	Text       string
	Images     []File
	Attachment *File
}

// IsEmpty reports whether there is nothing to send
func (r SendRequest) IsEmpty() bool {
	return strings.TrimSpace(r.Text) == "" && len(r.Images) == 0 && r.Attachment == nil
}

// SendResult describes what a cycle appended
type SendResult struct {
	UserMessages []*Message
	// Reply is the bot message: the model's answer, or the error notice when Err is set
	Reply *Message
	Err   error
}

// Failed reports whether the exchange ended in an error message
func (r *SendResult) Failed() bool {
	return r != nil && r.Err != nil
}

// Bridge runs send cycles against a session: it appends the user's message,
// calls the transport and records the reply or a retryable error.
type Bridge struct {
	session   *Session
	transport Transport
	codec     *Codec
	opts      BridgeOptions
}

// NewBridge wires a session to a transport
func NewBridge(session *Session, transport Transport, codec *Codec, opts BridgeOptions) *Bridge {
	if codec == nil {
		codec = NewCodec(nil, 0)
	}
	return &Bridge{
		session:   session,
		transport: transport,
		codec:     codec,
		opts:      opts.withDefaults(),
	}
}

// Session returns the session this bridge drives
func (b *Bridge) Session() *Session {
	return b.session
}

// Send runs one cycle. An empty request is a no-op returning (nil, nil).
// Transport failures are not returned: they end up as an error message in
// the session and in SendResult.Err. The returned error only reports a
// request rejected before any state changed (ErrBusy, ErrTooManyImages).
func (b *Bridge) Send(ctx context.Context, req SendRequest) (result *SendResult, err error) {
	if req.IsEmpty() {
		return nil, nil
	}
	if len(req.Images) > b.opts.MaxImages {
		return nil, fmt.Errorf("%w: %d given, at most %d allowed", ErrTooManyImages, len(req.Images), b.opts.MaxImages)
	}
	for _, img := range req.Images {
		if !img.IsImage() {
			return nil, fmt.Errorf("not an image: %s (%s)", img.Name, img.MimeType)
		}
	}
	if !b.session.beginSend() {
		return nil, ErrBusy
	}
	defer b.session.endSend()

	text := strings.TrimSpace(req.Text)
	prompt := b.prompt(text, req)
	result = &SendResult{}

	defer func() {
		if r := recover(); r != nil {
			b.fail(result, prompt, fmt.Errorf("send failed: %v", r))
		}
	}()

	reply, exchangeErr := b.exchange(ctx, text, prompt, req, result)
	if exchangeErr != nil {
		b.fail(result, prompt, exchangeErr)
		return result, nil
	}

	botMsg := NewMessage(RoleBot, reply.Text)
	if err := b.session.AppendMessage(botMsg); err != nil {
		b.fail(result, prompt, err)
		return result, nil
	}
	result.Reply = botMsg

	if b.session.BindSessionID(reply.SessionID) {
		LogInfo("Bound remote session %s", reply.SessionID)
	}
	return result, nil
}

// Retry resubmits the input kept on a retryable error message
func (b *Bridge) Retry(ctx context.Context, messageID string) (*SendResult, error) {
	msg, ok := b.session.Find(messageID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	if !msg.IsError || !msg.Retryable || msg.OriginalText == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotRetryable, messageID)
	}
	return b.Send(ctx, SendRequest{Text: msg.OriginalText})
}

// LatestRetryable returns the most recent retryable error message, if any
func (b *Bridge) LatestRetryable() (*Message, bool) {
	messages := b.session.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].IsError && messages[i].Retryable {
			return messages[i], true
		}
	}
	return nil, false
}

func (b *Bridge) prompt(text string, req SendRequest) string {
	switch {
	case text != "":
		return text
	case len(req.Images) > 0:
		return b.opts.ImagePrompt
	default:
		return b.opts.FilePrompt
	}
}

func (b *Bridge) exchange(ctx context.Context, text, prompt string, req SendRequest, result *SendResult) (Reply, error) {
	var attachmentName string
	if req.Attachment != nil {
		attachmentName = req.Attachment.Name
	}

	// One user message per image, all carrying the same prompt.
	if len(req.Images) > 0 {
		for _, img := range req.Images {
			att, err := b.codec.EncodeForStorage(img)
			if err != nil {
				return Reply{}, err
			}
			msg := NewMessage(RoleUser, prompt,
				WithOriginalText(text),
				WithAttachment(att),
				WithAttachmentName(attachmentName))
			if err := b.session.AppendMessage(msg); err != nil {
				return Reply{}, err
			}
			result.UserMessages = append(result.UserMessages, msg)
		}
	} else {
		msg := NewMessage(RoleUser, prompt,
			WithOriginalText(text),
			WithAttachmentName(attachmentName))
		if err := b.session.AppendMessage(msg); err != nil {
			return Reply{}, err
		}
		result.UserMessages = append(result.UserMessages, msg)
	}

	out := Request{
		Message:   text,
		History:   b.session.APIHistory(),
		SessionID: b.session.SessionID(),
	}
	for _, img := range req.Images {
		out.Images = append(out.Images, b.codec.EncodeForWire(img, imageField))
	}
	if req.Attachment != nil {
		part := b.codec.EncodeForWire(*req.Attachment, attachmentField)
		out.Attachment = &part
	}

	reply, err := b.transport.Send(ctx, out)
	if err != nil {
		return Reply{}, err
	}
	if strings.TrimSpace(reply.Text) == "" {
		return Reply{}, errors.New("backend returned an empty reply")
	}
	return reply, nil
}

// fail records a failed exchange as a retryable bot error message
func (b *Bridge) fail(result *SendResult, originalText string, err error) {
	LogError("Exchange failed: %v", err)

	notice := userFacingError(err, b.opts.FailureNotice)
	msg := NewMessage(RoleBot, notice, WithError(originalText, true))
	if appendErr := b.session.AppendMessage(msg); appendErr != nil {
		LogError("Failed to record error message: %v", appendErr)
	}
	b.session.setLastError(err)
	result.Reply = msg
	result.Err = err
}
