package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	portal "github.com/pondok-digital/portal"
)

// Request describes one logical call to the backend.
//
// A Request is owned by a single Send and must not be shared between concurrent calls:
// the pipeline mutates its headers and records whether it has already been retried.
type Request struct {
	Method string
	Path   string // relative to the client base url, e.g. "/articles"
	Query  url.Values
	Header http.Header
	Body   any // encoded as JSON, nil for no body

	retried      bool
	credentialed bool
	payload      []byte
	encoded      bool
}

func NewRequest(method, path string, body any) *Request {
	return &Request{
		Method: strings.ToUpper(method),
		Path:   path,
		Body:   body,
		Header: make(http.Header),
	}
}

// Retried reports whether the request was re-dispatched after a CSRF rejection
func (r *Request) Retried() bool {
	return r.retried
}

// Credentialed reports whether a CSRF token was attached to the request.
// It does not gate cookies: browser mode is same-origin and sends the jar cookies on every request.
func (r *Request) Credentialed() bool {
	return r.credentialed
}

// mutating reports whether the verb changes server state and therefore needs a CSRF token
func (r *Request) mutating() bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// encode marshals the body once so a retry re-sends identical bytes
func (r *Request) encode() error {
	if r.encoded {
		return nil
	}
	r.encoded = true
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Method = strings.ToUpper(r.Method)
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	if r.Body == nil {
		return nil
	}

	switch b := r.Body.(type) {
	case []byte:
		r.payload = b
	case json.RawMessage:
		r.payload = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("marshaling %s %s request body: %w", r.Method, r.Path, err)
		}
		r.payload = data
	}
	if r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", "application/json")
	}
	return nil
}

func (r *Request) requestID() string {
	return r.Header.Get(portal.RequestIDHeaderName)
}

// Response is a fully read backend response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the response body into v
func (r *Response) JSON(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body (status %d)", r.StatusCode)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response body (status %d): %w", r.StatusCode, err)
	}
	return nil
}
