package policy

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Olinea/AniLog/internal/models"
)

func testSigner(now time.Time) *Signer {
	return &Signer{
		AccessID:       "AKID",
		Secret:         "storage-secret",
		Host:           "https://photos.example.com",
		Bucket:         "photos",
		DirPrefix:      "user/",
		CallbackURL:    "https://api.example.com/photos/callback",
		UploadTTL:      5 * time.Minute,
		GrantTTL:       30 * time.Minute,
		UploadMaxBytes: 10 << 20,
		GrantMaxBytes:  100 << 20,
		Now:            func() time.Time { return now },
	}
}

type decodedPolicy struct {
	Expiration string  `json:"expiration"`
	Conditions [][]any `json:"conditions"`
}

func decodePolicy(t *testing.T, cred Credential) decodedPolicy {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(cred.Policy)
	if err != nil {
		t.Fatalf("policy not base64: %v", err)
	}
	var doc decodedPolicy
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("policy not json: %v", err)
	}
	return doc
}

func condition(t *testing.T, doc decodedPolicy, name string) []any {
	t.Helper()
	for _, c := range doc.Conditions {
		if len(c) > 0 && c[0] == name {
			return c
		}
	}
	t.Fatalf("condition %q missing", name)
	return nil
}

func TestIssueUploadOrdinaryPrefixConfinement(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := testSigner(now)
	id := &models.Identity{Subject: "42", Tier: models.TierOrdinary, Active: true}

	cred, err := s.IssueUpload(id, "", "7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if cred.Dir != "user/42/" {
		t.Fatalf("dir = %q, want user/42/", cred.Dir)
	}
	if cred.Expire != now.Add(5*time.Minute).Unix() {
		t.Fatalf("expire = %d, want %d", cred.Expire, now.Add(5*time.Minute).Unix())
	}
	if cred.AccessID != "AKID" || cred.Host != "https://photos.example.com" {
		t.Fatalf("credential identifiers wrong: %+v", cred)
	}
	if cred.Permissions != nil {
		t.Fatalf("single upload must not carry permissions")
	}

	doc := decodePolicy(t, cred)
	if doc.Expiration != "2026-03-01T12:05:00Z" {
		t.Fatalf("policy expiration = %q", doc.Expiration)
	}
	clr := condition(t, doc, "content-length-range")
	if clr[2].(float64) != float64(10<<20) {
		t.Fatalf("size ceiling = %v, want 10485760", clr[2])
	}
	sw := condition(t, doc, "starts-with")
	if sw[1] != "$key" || sw[2] != "user/42/" {
		t.Fatalf("starts-with = %v", sw)
	}
}

func TestSignatureIsPolicyMAC(t *testing.T) {
	s := testSigner(time.Now())
	id := &models.Identity{Subject: "42", Active: true}

	cred, err := s.IssueUpload(id, "", "7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	mac := hmac.New(sha1.New, []byte("storage-secret"))
	mac.Write([]byte(cred.Policy))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if cred.Signature != want {
		t.Fatalf("signature = %q, want HMAC-SHA1 over encoded policy", cred.Signature)
	}
}

func TestIssueUploadDelegatedTarget(t *testing.T) {
	s := testSigner(time.Now())
	elevated := &models.Identity{Subject: "1", Tier: models.TierElevated, Active: true}

	cred, err := s.IssueUpload(elevated, "99", "7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cred.Dir != "user/99/" {
		t.Fatalf("dir = %q, want target subject prefix", cred.Dir)
	}
}

func TestIssueGrantShapes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := testSigner(now)
	admin := &models.Identity{Subject: "1", Tier: models.TierManager, Active: true}

	// No target: administrator acting on the whole bucket.
	wide, err := s.IssueGrant(admin, "")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if wide.Dir != "user/" {
		t.Fatalf("wildcard grant dir = %q, want root prefix", wide.Dir)
	}
	if wide.Expire != now.Add(30*time.Minute).Unix() {
		t.Fatalf("grant expire = %d", wide.Expire)
	}
	if len(wide.Permissions) != 3 {
		t.Fatalf("grant permissions = %v", wide.Permissions)
	}
	doc := decodePolicy(t, wide)
	if clr := condition(t, doc, "content-length-range"); clr[2].(float64) != float64(100<<20) {
		t.Fatalf("grant size ceiling = %v", clr[2])
	}

	// With target: confined to that subject's directory.
	scoped, err := s.IssueGrant(admin, "42")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if scoped.Dir != "user/42/" {
		t.Fatalf("scoped grant dir = %q", scoped.Dir)
	}
}

func TestElevatedSelfUploadGetsOwnPrefix(t *testing.T) {
	s := testSigner(time.Now())
	elevated := &models.Identity{Subject: "1", Tier: models.TierElevated, Active: true}

	cred, err := s.IssueUpload(elevated, "", "7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// Acting as themselves, not on the whole bucket.
	if cred.Dir != "user/1/" {
		t.Fatalf("dir = %q, want own subject prefix", cred.Dir)
	}
}

func TestCallbackDescriptor(t *testing.T) {
	s := testSigner(time.Now())
	id := &models.Identity{Subject: "42", Active: true}

	cred, err := s.IssueUpload(id, "", "7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(cred.Callback)
	if err != nil {
		t.Fatalf("callback not base64: %v", err)
	}
	var cb callbackSpec
	if err := json.Unmarshal(raw, &cb); err != nil {
		t.Fatalf("callback not json: %v", err)
	}
	if cb.CallbackURL != "https://api.example.com/photos/callback" {
		t.Fatalf("callbackUrl = %q", cb.CallbackURL)
	}
	if cb.CallbackBodyType != "application/x-www-form-urlencoded" {
		t.Fatalf("callbackBodyType = %q", cb.CallbackBodyType)
	}
	for _, ph := range []string{"${object}", "${size}", "${mimeType}", "${etag}"} {
		if !strings.Contains(cb.CallbackBody, ph) {
			t.Fatalf("callback body missing placeholder %s: %q", ph, cb.CallbackBody)
		}
	}
	// The correlation id is literal, not a placeholder.
	if !strings.Contains(cb.CallbackBody, "animal_id=7") {
		t.Fatalf("callback body missing literal correlation: %q", cb.CallbackBody)
	}

	grant, err := s.IssueGrant(&models.Identity{Subject: "1", Tier: models.TierElevated, Active: true}, "")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	raw, _ = base64.StdEncoding.DecodeString(grant.Callback)
	if err := json.Unmarshal(raw, &cb); err != nil {
		t.Fatalf("grant callback not json: %v", err)
	}
	if !strings.Contains(cb.CallbackBody, "user_id=1") {
		t.Fatalf("grant callback missing operator correlation: %q", cb.CallbackBody)
	}
}
