// Package authn resolves carried credentials into identities and gates
// privileged operations on trust tiers.
package authn

import (
	"strings"

	"github.com/Olinea/AniLog/internal/httpx"

	"github.com/aws/aws-lambda-go/events"
)

// SessionCookieName is the cookie channel for the session token.
const SessionCookieName = "session_token"

// legacyTokenField is the back-compatibility query/form channel.
const legacyTokenField = "token"

// Extractor probes one credential channel of a request and returns the
// raw carried token, or "" when the channel is empty. Extractors locate
// candidates only; nothing here validates.
type Extractor func(events.APIGatewayV2HTTPRequest) string

// FromCookie reads the session cookie.
func FromCookie(req events.APIGatewayV2HTTPRequest) string {
	return httpx.Cookie(req, SessionCookieName)
}

// FromBearer reads an Authorization bearer credential.
func FromBearer(req events.APIGatewayV2HTTPRequest) string {
	auth := httpx.Header(req.Headers, "Authorization")
	if auth == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[len("bearer "):])
}

// FromLegacyField reads the legacy token query parameter, falling back
// to a form-encoded body field.
func FromLegacyField(req events.APIGatewayV2HTTPRequest) string {
	if v := req.QueryStringParameters[legacyTokenField]; v != "" {
		return v
	}
	ct := strings.ToLower(httpx.Header(req.Headers, "Content-Type"))
	if !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		return ""
	}
	form, err := httpx.ParseForm(req)
	if err != nil {
		return ""
	}
	return form.Get(legacyTokenField)
}

// DefaultChain is the fixed probe order: cookie, then bearer header,
// then the legacy field.
func DefaultChain() []Extractor {
	return []Extractor{FromCookie, FromBearer, FromLegacyField}
}

// ResolveCarrier walks the chain and returns the first non-empty
// candidate, or "" when no channel carries one.
func ResolveCarrier(req events.APIGatewayV2HTTPRequest, chain []Extractor) string {
	for _, extract := range chain {
		if v := extract(req); v != "" {
			return v
		}
	}
	return ""
}
