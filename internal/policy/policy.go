// Package policy builds and signs the scoped, time-boxed documents that
// let a client upload directly to the storage provider. The provider's
// post-policy scheme is base64 canonical JSON signed with HMAC-SHA1
// under the storage access secret — a different secret and discipline
// than session tokens.
package policy

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/Olinea/AniLog/internal/models"
)

// iso8601 is the expiration layout the provider expects inside the
// policy document.
const iso8601 = "2006-01-02T15:04:05Z"

// Credential is the issued upload authorization the client forwards
// unmodified to the storage provider.
type Credential struct {
	AccessID    string   `json:"accessId"`
	Host        string   `json:"host"`
	Policy      string   `json:"policy"`
	Signature   string   `json:"signature"`
	Expire      int64    `json:"expire"` // epoch seconds
	Callback    string   `json:"callback"`
	Dir         string   `json:"dir"`
	Permissions []string `json:"permissions,omitempty"`
}

// document is the canonical policy body before encoding.
type document struct {
	Expiration string `json:"expiration"`
	Conditions []any  `json:"conditions"`
}

// callbackSpec tells the provider how to notify us on completion. The
// body is a template: ${...} placeholders are filled in by the provider
// at upload time, while the correlation field is baked in literally.
type callbackSpec struct {
	CallbackURL      string `json:"callbackUrl"`
	CallbackBody     string `json:"callbackBody"`
	CallbackBodyType string `json:"callbackBodyType"`
}

const callbackBodyTemplate = "object=${object}&size=${size}&mimeType=${mimeType}&etag=${etag}"

// Signer issues upload credentials. The clock is injectable for expiry
// tests.
type Signer struct {
	AccessID    string
	Secret      string
	Host        string
	Bucket      string
	DirPrefix   string
	CallbackURL string

	UploadTTL      time.Duration
	GrantTTL       time.Duration
	UploadMaxBytes int64
	GrantMaxBytes  int64

	Now func() time.Time
}

func (s *Signer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// IssueUpload issues a single-object upload credential confined to one
// subject's directory. targetSubject may only differ from the identity's
// own subject for elevated identities; the authorization gate enforces
// that before this is reached. The animal id is the literal correlation
// field the completion callback carries back.
func (s *Signer) IssueUpload(id *models.Identity, targetSubject, animalID string) (Credential, error) {
	subject := id.Subject
	if targetSubject != "" {
		subject = targetSubject
	}
	dir := s.DirPrefix + subject + "/"
	return s.issue(dir, s.UploadTTL, s.UploadMaxBytes, "animal_id="+animalID, nil)
}

// IssueGrant issues the broader delegated-permission credential. With a
// target subject it is confined to that subject's directory; with none,
// the identity is acting on the whole bucket and receives the wildcard
// root prefix. Both shapes carry the grant-scope window, size ceiling,
// and permission list.
func (s *Signer) IssueGrant(id *models.Identity, targetSubject string) (Credential, error) {
	dir := s.DirPrefix
	if targetSubject != "" {
		dir = s.DirPrefix + targetSubject + "/"
	}
	perms := []string{models.PermRead, models.PermWrite, models.PermDelete}
	return s.issue(dir, s.GrantTTL, s.GrantMaxBytes, "user_id="+id.Subject, perms)
}

// issue builds, encodes, and signs one policy document plus its
// callback descriptor.
func (s *Signer) issue(dir string, ttl time.Duration, maxBytes int64, correlation string, perms []string) (Credential, error) {
	expireAt := s.now().Add(ttl)

	doc := document{
		Expiration: expireAt.UTC().Format(iso8601),
		Conditions: []any{
			[]any{"content-length-range", int64(0), maxBytes},
			[]any{"starts-with", "$key", dir},
		},
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return Credential{}, err
	}
	encodedPolicy := base64.StdEncoding.EncodeToString(docJSON)

	cb := callbackSpec{
		CallbackURL:      s.CallbackURL,
		CallbackBody:     callbackBodyTemplate + "&" + correlation,
		CallbackBodyType: "application/x-www-form-urlencoded",
	}
	cbJSON, err := json.Marshal(cb)
	if err != nil {
		return Credential{}, err
	}

	return Credential{
		AccessID:    s.AccessID,
		Host:        s.Host,
		Policy:      encodedPolicy,
		Signature:   s.sign(encodedPolicy),
		Expire:      expireAt.Unix(),
		Callback:    base64.StdEncoding.EncodeToString(cbJSON),
		Dir:         dir,
		Permissions: perms,
	}, nil
}

// sign MACs the encoded policy with the storage secret, per the
// provider's required SHA-1 scheme.
func (s *Signer) sign(encodedPolicy string) string {
	mac := hmac.New(sha1.New, []byte(s.Secret))
	mac.Write([]byte(encodedPolicy))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
