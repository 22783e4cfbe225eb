package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Envelope is a successful ({"status": true}) API response. Failed responses
// never produce an Envelope.
type Envelope struct {
	Status  bool
	Message string
	// Data is the raw "data" member, exactly as the server sent it.
	Data json.RawMessage
	// Raw is the full response body, for server-specific top-level fields.
	Raw json.RawMessage
}

// Field looks up a top-level or dotted path in the raw payload, e.g.
// "jwt_token" or "data.auth_key".
func (e *Envelope) Field(path string) gjson.Result {
	return gjson.GetBytes(e.Raw, path)
}

// parseEnvelope reads the status discriminant and message from body.
func parseEnvelope(body []byte) (env *Envelope, ok bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, false
	}

	env = &Envelope{
		Status: root.Get("status").Type == gjson.True,
		Raw:    json.RawMessage(body),
	}
	if msg := root.Get("message"); msg.Type == gjson.String {
		env.Message = msg.String()
	}
	if data := root.Get("data"); data.Exists() {
		env.Data = json.RawMessage(data.Raw)
	}
	return env, true
}

// ErrFailed marks a Result whose request already failed and was reported.
var ErrFailed = errors.New("request failed")

// Result is the typed outcome of a request: either Data decoded from the
// envelope, or Err.
type Result[T any] struct {
	Data    T
	Message string
	Err     error
}

// OK reports whether the result carries data.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Decode converts an envelope returned by the client into a typed Result. A
// nil envelope yields ErrFailed.
func Decode[T any](env *Envelope) Result[T] {
	var r Result[T]
	if env == nil {
		r.Err = ErrFailed
		return r
	}
	r.Message = env.Message
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return r
	}
	if err := json.Unmarshal(env.Data, &r.Data); err != nil {
		r.Err = fmt.Errorf("decode data: %w", err)
	}
	return r
}

// ImageURL joins an image_url/image_path prefix and an item's image filename.
func ImageURL(prefix, filename string) string {
	return prefix + "/" + filename
}
