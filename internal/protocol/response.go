package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const serverName = "wordarena"

// Wire status codes. These are HTTP-shaped for client compatibility but the
// transport is not a real HTTP server.
const (
	StatusOK            = 200
	StatusBadRequest    = 400
	StatusNotAuthorized = 401
	StatusNotSupported  = 405
	StatusConflict      = 409
	StatusInternal      = 500
)

// SendWord rejection codes carried in the "code" field of a 400 response.
const (
	CodeStaleRound = 100
	CodeNoGame     = 200
	CodeAlreadyWon = 300
)

// Response is one reply to a client. Fields are endpoint-specific JSON
// members; status and details are always present in the encoded body.
type Response struct {
	Status  int
	Details string
	Fields  map[string]any
}

// NewResponse builds a response with no extra fields.
func NewResponse(status int, details string) *Response {
	return &Response{Status: status, Details: details, Fields: map[string]any{}}
}

// With adds a body field and returns the response for chaining.
func (r *Response) With(key string, value any) *Response {
	r.Fields[key] = value
	return r
}

// Encode renders the full wire response: status line, fixed header set, then
// the JSON body with status mirrored into it.
func (r *Response) Encode(now time.Time) ([]byte, error) {
	body := map[string]any{
		"status":  r.Status,
		"details": r.Details,
	}
	for key, value := range r.Fields {
		body[key] = value
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding response body: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d OK\r\n", r.Status)
	fmt.Fprintf(&b, "Server: %s\r\n", serverName)
	fmt.Fprintf(&b, "Date: %s\r\n", now.UTC().Format(time.RFC1123))
	b.WriteString("Access-Control-Allow-Origin: *\r\n")
	b.WriteString("Access-Control-Allow-Methods: *\r\n")
	b.WriteString("Access-Control-Allow-Headers: *\r\n")
	b.WriteString("Content-Type: application/json; charset=utf-8\r\n")
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(payload))
	b.WriteString("\r\n")
	b.Write(payload)
	return []byte(b.String()), nil
}
