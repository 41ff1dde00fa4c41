package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client speaks the game wire protocol over TCP. Each call opens a fresh
// connection, sends one request and reads one response.
type Client struct {
	addr     string
	username string
	token    string
	timeout  time.Duration
}

// NewClient creates a new wire protocol client
func NewClient(addr, username, token string) *Client {
	return &Client{
		addr:     addr,
		username: username,
		token:    token,
		timeout:  10 * time.Second,
	}
}

// SetSession updates the client's credentials
func (c *Client) SetSession(username, token string) {
	c.username = username
	c.token = token
}

// Reply is a decoded server response
type Reply struct {
	Status  int
	Details string
	Fields  map[string]any
}

// ReplyError is a non-200 response surfaced as an error
type ReplyError struct {
	Status  int
	Details string
	Fields  map[string]any
}

func (e *ReplyError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d)", e.Details, e.Status)
}

// Str returns a string field, or "" when absent.
func (r *Reply) Str(key string) string {
	s, _ := r.Fields[key].(string)
	return s
}

// Int returns a numeric field, or 0 when absent.
func (r *Reply) Int(key string) int {
	f, _ := r.Fields[key].(float64)
	return int(f)
}

// Float returns a numeric field, or 0 when absent.
func (r *Reply) Float(key string) float64 {
	f, _ := r.Fields[key].(float64)
	return f
}

// Bool returns a boolean field, or false when absent.
func (r *Reply) Bool(key string) bool {
	b, _ := r.Fields[key].(bool)
	return b
}

// Strings returns a string slice field.
func (r *Reply) Strings(key string) []string {
	raw, _ := r.Fields[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Ints returns a numeric slice field.
func (r *Reply) Ints(key string) []int {
	raw, _ := r.Fields[key].([]any)
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}

// Get performs a GET request against the endpoint
func (c *Client) Get(endpoint string, params map[string]string) (*Reply, error) {
	return c.Do("GET", endpoint, params)
}

// Post performs a POST request against the endpoint
func (c *Client) Post(endpoint string, params map[string]string) (*Reply, error) {
	return c.Do("POST", endpoint, params)
}

// Do performs a request. Credentials ride along automatically when set.
func (c *Client) Do(method, endpoint string, params map[string]string) (*Reply, error) {
	query := url.Values{}
	if c.username != "" {
		query.Set("username", c.username)
	}
	for k, v := range params {
		query.Set(k, v)
	}

	var req strings.Builder
	req.WriteString(method)
	req.WriteString(" /")
	req.WriteString(endpoint)
	if len(query) > 0 {
		req.WriteString("?")
		req.WriteString(query.Encode())
	}
	req.WriteString(" HTTP/1.1\r\n")
	if c.token != "" {
		req.WriteString("Authorization: Bearer " + c.token + "\r\n")
	}
	req.WriteString("\r\n")

	conn, err := net.DialTimeout("tcp", c.addr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", c.addr, err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := conn.Write([]byte(req.String())); err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	reply, err := readReply(bufio.NewReader(conn))
	if err != nil {
		return nil, err
	}
	if reply.Status != 200 {
		return reply, &ReplyError{Status: reply.Status, Details: reply.Details, Fields: reply.Fields}
	}
	return reply, nil
}

func readReply(r *bufio.Reader) (*Reply, error) {
	statusLine, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	parts := strings.Fields(statusLine)
	if len(parts) < 2 {
		return nil, fmt.Errorf("malformed status line %q", strings.TrimSpace(statusLine))
	}

	contentLength := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("reading headers: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if name, value, ok := strings.Cut(line, ":"); ok {
			if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
				contentLength, _ = strconv.Atoi(strings.TrimSpace(value))
			}
		}
	}

	fields := map[string]any{}
	if contentLength > 0 {
		body := make([]byte, contentLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("decoding body: %w", err)
		}
	}

	reply := &Reply{Fields: fields}
	if f, ok := fields["status"].(float64); ok {
		reply.Status = int(f)
	} else {
		reply.Status, _ = strconv.Atoi(parts[1])
	}
	if s, ok := fields["details"].(string); ok {
		reply.Details = s
	}
	delete(fields, "status")
	delete(fields, "details")
	return reply, nil
}
