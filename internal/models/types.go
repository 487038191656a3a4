// Package models defines the data models used in the application.
package models

// Trust tiers attached to an identity. Higher values unlock more
// privileged operations.
const (
	TierOrdinary = 0
	TierElevated = 2 // cross-account credential delegation
	TierManager  = 3 // moderation and destructive mutations on shared resources
)

// Identity is an authenticated principal. The subject is its stable
// identifier and is what gets embedded in claim tokens and object keys.
type Identity struct {
	// DynamoDB keys
	PK string `dynamodbav:"PK" json:"-"` // USER#<subject>
	SK string `dynamodbav:"SK" json:"-"` // PROFILE

	Subject        string `dynamodbav:"subject" json:"subject"`
	Username       string `dynamodbav:"username" json:"username"`
	Email          string `dynamodbav:"email" json:"email,omitempty"`
	HashedPassword string `dynamodbav:"hashed_password" json:"-"`
	AvatarURL      string `dynamodbav:"avatar_url" json:"avatar_url,omitempty"`
	Tier           int    `dynamodbav:"tier" json:"tier"`
	Active         bool   `dynamodbav:"active" json:"active"`
	CreatedAt      string `dynamodbav:"created_at" json:"created_at,omitempty"`
}

// Elevated reports whether the identity may delegate upload credentials
// for subjects other than itself.
func (i *Identity) Elevated() bool { return i != nil && i.Tier >= TierElevated }

// Manager reports whether the identity may moderate shared resources.
func (i *Identity) Manager() bool { return i != nil && i.Tier >= TierManager }

// Animal is the entity photos attach to. Owned by the resource store;
// this core only checks existence.
type Animal struct {
	PK string `dynamodbav:"PK" json:"-"` // ANIMAL#<id>
	SK string `dynamodbav:"SK" json:"-"` // PROFILE

	ID       string `dynamodbav:"animal_id" json:"id"`
	Name     string `dynamodbav:"name" json:"name"`
	Nickname string `dynamodbav:"nickname" json:"nickname,omitempty"`
	Campus   string `dynamodbav:"campus" json:"campus,omitempty"`
	Area     string `dynamodbav:"area" json:"area,omitempty"`
	Active   bool   `dynamodbav:"active" json:"active"`
}

// Photo is the record materialized by a verified upload callback. It is
// keyed by the final object URL, which is unique across the table; the
// verified and best flags start false and only a manager may flip them.
type Photo struct {
	PK string `dynamodbav:"PK" json:"-"` // PHOTO#<url>
	SK string `dynamodbav:"SK" json:"-"` // RECORD

	ID        string `dynamodbav:"photo_id" json:"id"`
	URL       string `dynamodbav:"photo_url" json:"photo_url"`
	ObjectKey string `dynamodbav:"object_key" json:"object_key"`
	AnimalID  string `dynamodbav:"animal_id" json:"animal_id"`
	OwnerID   string `dynamodbav:"owner_id" json:"owner_id"` // uploader subject
	SizeBytes int64  `dynamodbav:"size_bytes" json:"size_bytes"`
	MimeType  string `dynamodbav:"mime_type" json:"mime_type"`
	ETag      string `dynamodbav:"etag" json:"etag"`
	Verified  bool   `dynamodbav:"verified" json:"verified"`
	Best      bool   `dynamodbav:"best" json:"best"`
	CreatedAt string `dynamodbav:"created_at" json:"created_at"`
}

// Grant permissions carried by the delegated-credential variant.
const (
	PermRead   = "read"
	PermWrite  = "write"
	PermDelete = "delete"
)
