// Package protocol implements the line-based text protocol the game clients
// speak: request parsing, endpoint dispatch, and response encoding.
package protocol

import (
	"fmt"
	"net/url"
	"strings"
)

// Request is one parsed client request. Params merges the query string, the
// Authorization header, and the body: query first, then the header token,
// then body pairs overwrite same-named keys last.
type Request struct {
	Method string
	// Endpoint is the first path segment, without the leading slash
	Endpoint string
	Params   map[string]string
}

// Param returns the named parameter, or "" when absent.
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// ParseRequest decodes a raw request buffer. The expected shape is a request
// line, header lines up to a blank line, then an optional &-joined body.
func ParseRequest(raw []byte) (*Request, error) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("empty request")
	}

	method, target, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	path, query, _ := strings.Cut(target, "?")
	req := &Request{
		Method:   method,
		Endpoint: firstSegment(path),
		Params:   map[string]string{},
	}
	mergePairs(req.Params, query)

	// Header lines until the blank separator; only Authorization matters
	bodyStart := len(lines)
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			bodyStart = i + 1
			break
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Authorization") {
			token := strings.TrimSpace(value)
			token = strings.TrimPrefix(token, "Bearer ")
			if token != "" {
				req.Params["token"] = token
			}
		}
	}

	if bodyStart < len(lines) {
		body := strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
		mergePairs(req.Params, body)
	}
	return req, nil
}

func parseRequestLine(line string) (method, target string, err error) {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) < 2 {
		return "", "", fmt.Errorf("malformed request line %q", line)
	}
	return parts[0], parts[1], nil
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	segment, _, _ := strings.Cut(path, "/")
	return segment
}

// mergePairs decodes &-joined key=value pairs into params, overwriting
// existing keys.
func mergePairs(params map[string]string, encoded string) {
	if encoded == "" {
		return
	}
	for _, pair := range strings.Split(encoded, "&") {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			continue
		}
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		params[decodedKey] = decodedValue
	}
}
