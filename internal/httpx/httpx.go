// Package httpx provides helper functions for API Gateway requests and responses.
package httpx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// corsHeaders mirror the permissive CORS policy of the original frontend
// deployment.
func corsHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                     "application/json",
		"Access-Control-Allow-Origin":      "*",
		"Access-Control-Allow-Credentials": "true",
	}
}

// JSON creates a JSON HTTP response with the given status code and value.
func JSON(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    corsHeaders(),
		Body:       string(b),
	}, nil
}

// Error creates a JSON HTTP error response with the given status code and message.
func Error(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return JSON(status, map[string]string{"error": msg})
}

// WithCookie returns a copy of the response carrying a Set-Cookie value.
func WithCookie(resp events.APIGatewayV2HTTPResponse, cookie string) events.APIGatewayV2HTTPResponse {
	resp.Cookies = append(resp.Cookies, cookie)
	return resp
}

// SessionCookie builds a session cookie value with the hardening
// attributes the browser flow relies on (HttpOnly, SameSite=Lax).
// maxAge <= 0 produces an expired cookie, which is how logout clears it.
func SessionCookie(name, token string, maxAge int) string {
	parts := []string{
		name + "=" + token,
		"Path=/",
		"HttpOnly",
		"SameSite=Lax",
	}
	if maxAge > 0 {
		parts = append(parts, "Max-Age="+strconv.Itoa(maxAge))
	} else {
		parts = append(parts, "Max-Age=0")
	}
	return strings.Join(parts, "; ")
}

// Cookie returns the named cookie value from the request, or "".
func Cookie(req events.APIGatewayV2HTTPRequest, name string) string {
	for _, c := range req.Cookies {
		if k, v, ok := strings.Cut(c, "="); ok && k == name {
			return v
		}
	}
	return ""
}

// Header retrieves a header value in a case-insensitive manner.
func Header(h map[string]string, key string) string {
	lk := strings.ToLower(key)
	for k, v := range h {
		if strings.ToLower(k) == lk {
			return v
		}
	}
	return ""
}

// Body returns the request body, decoding the API Gateway base64 wrapping
// when present.
func Body(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	return base64.StdEncoding.DecodeString(req.Body)
}

// ParseForm parses a form-encoded request body.
func ParseForm(req events.APIGatewayV2HTTPRequest) (url.Values, error) {
	b, err := Body(req)
	if err != nil {
		return nil, errors.New("invalid body encoding")
	}
	vals, err := url.ParseQuery(string(b))
	if err != nil {
		return nil, errors.New("invalid form body")
	}
	return vals, nil
}
