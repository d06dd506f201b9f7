package types

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ChatCompletionRequest is the inbound chat completion body as far as the
// relay cares about it. Every field stays raw so values are forwarded
// without being reinterpreted; the upstream judges their types.
type ChatCompletionRequest struct {
	Model     json.RawMessage
	Messages  json.RawMessage
	MaxTokens json.RawMessage
}

// ParseChatRequest picks model, messages and max_tokens out of a
// well-formed JSON body. Keys match exactly. A body that is not an object
// has no fields.
func ParseChatRequest(body []byte) (*ChatCompletionRequest, error) {
	req := &ChatCompletionRequest{}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return req, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	req.Model = fields["model"]
	req.Messages = fields["messages"]
	req.MaxTokens = fields["max_tokens"]
	return req, nil
}

// ChatDefaults supplies values for fields the caller left out.
type ChatDefaults struct {
	Model     string
	MaxTokens int
}

// ShapedChatRequest is the outbound chat completion body.
type ShapedChatRequest struct {
	Model     json.RawMessage `json:"model"`
	Messages  json.RawMessage `json:"messages,omitempty"`
	MaxTokens json.RawMessage `json:"max_tokens"`
}

// Shape builds the outbound body. A missing or falsy model or max_tokens
// (null, false, 0, "") falls back to the defaults; any other value and the
// messages pass through untouched.
func (r *ChatCompletionRequest) Shape(d ChatDefaults) *ShapedChatRequest {
	out := &ShapedChatRequest{
		Model:     r.Model,
		Messages:  r.Messages,
		MaxTokens: r.MaxTokens,
	}
	if !truthy(out.Model) {
		out.Model, _ = json.Marshal(d.Model)
	}
	if !truthy(out.MaxTokens) {
		out.MaxTokens = json.RawMessage(strconv.Itoa(d.MaxTokens))
	}
	return out
}

// ModelName returns the model as text: the string value when it is a JSON
// string, else the raw JSON.
func (s *ShapedChatRequest) ModelName() string {
	var name string
	if err := json.Unmarshal(s.Model, &name); err == nil {
		return name
	}
	return string(s.Model)
}

// truthy reports whether a JSON value counts as set: anything except
// null, false, a zero number or the empty string.
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch c := v[0]; {
	case c == 'n', c == 'f':
		return false
	case c == '"':
		return len(v) > 2
	case c == '-' || (c >= '0' && c <= '9'):
		f, err := strconv.ParseFloat(string(v), 64)
		return err != nil || f != 0
	}
	return true
}

// DecodeMessages parses the raw messages for diagnostics such as token
// counting. It never affects what is forwarded.
func (r *ChatCompletionRequest) DecodeMessages() ([]Message, error) {
	if len(r.Messages) == 0 {
		return nil, nil
	}
	var msgs []Message
	if err := json.Unmarshal(r.Messages, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
