// Package token issues and verifies the signed, expiring claim tokens
// that back session authentication.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// algorithm is fixed; tokens declaring anything else are invalid.
const algorithm = "HS256"

// Claims is the verified content of a claim token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	Extra     map[string]any
}

// Codec signs and verifies claim tokens with an injected secret. The
// clock is injectable so expiry behavior is testable without sleeping.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec returns a Codec signing with the given secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// NewCodecAt returns a Codec using the supplied clock.
func NewCodecAt(secret string, now func() time.Time) *Codec {
	return &Codec{secret: []byte(secret), now: now}
}

// Issue builds a token of {sub, exp} merged with extra claims and signs
// it. Expiry is issuance time plus ttl and is never extended by use.
func (c *Codec) Issue(subject string, extra map[string]any, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["exp"] = jwt.NewNumericDate(c.now().Add(ttl))

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Verify decodes and checks a raw token. Every failure mode — malformed
// encoding, wrong algorithm, bad signature, expired — collapses into a
// single invalid outcome so callers cannot tell them apart.
func (c *Codec) Verify(raw string) (Claims, bool) {
	parsed, err := jwt.Parse(raw,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{algorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, false
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, false
	}
	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return Claims{}, false
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, false
	}

	extra := make(map[string]any, len(mc))
	for k, v := range mc {
		if k == "sub" || k == "exp" {
			continue
		}
		extra[k] = v
	}
	return Claims{Subject: sub, ExpiresAt: exp.Time, Extra: extra}, true
}
