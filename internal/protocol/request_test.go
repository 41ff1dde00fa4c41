package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestLineAndQuery(t *testing.T) {
	raw := []byte("GET /wordTimer?username=alice&token=abc123 HTTP/1.1\r\n\r\n")

	req, err := ParseRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "wordTimer", req.Endpoint)
	assert.Equal(t, "alice", req.Param("username"))
	assert.Equal(t, "abc123", req.Param("token"))
}

func TestParseRequestBody(t *testing.T) {
	raw := []byte("POST /register HTTP/1.1\r\nContent-Type: application/x-www-form-urlencoded\r\n\r\nusername=alice&password=pw%3A1")

	req, err := ParseRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "register", req.Endpoint)
	assert.Equal(t, "alice", req.Param("username"))
	assert.Equal(t, "pw:1", req.Param("password"))
}

func TestParseAuthorizationHeader(t *testing.T) {
	raw := []byte("GET /verify?username=alice HTTP/1.1\r\nAuthorization: Bearer tok42\r\n\r\n")

	req, err := ParseRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "tok42", req.Param("token"))
}

func TestParamPrecedenceQueryThenHeaderThenBody(t *testing.T) {
	// the body wins over the header token, which wins over the query
	raw := []byte("POST /verify?token=fromquery&username=alice HTTP/1.1\r\nAuthorization: fromheader\r\n\r\ntoken=frombody")

	req, err := ParseRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "frombody", req.Param("token"))

	raw = []byte("POST /verify?token=fromquery HTTP/1.1\r\nAuthorization: fromheader\r\n\r\n")
	req, err = ParseRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "fromheader", req.Param("token"))
}

func TestParseURLDecoding(t *testing.T) {
	raw := []byte("GET /register?username=a%20b HTTP/1.1\r\n\r\n")

	req, err := ParseRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "a b", req.Param("username"))
}

func TestParseNestedPathUsesFirstSegment(t *testing.T) {
	raw := []byte("GET /getGameHistory/extra?wordId=3 HTTP/1.1\r\n\r\n")

	req, err := ParseRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "getGameHistory", req.Endpoint)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseRequest([]byte(""))
	assert.Error(t, err)

	_, err = ParseRequest([]byte("NONSENSE\r\n\r\n"))
	assert.Error(t, err)
}
