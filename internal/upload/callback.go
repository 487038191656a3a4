// Package upload verifies storage-provider completion callbacks and
// materializes photo records from them.
package upload

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Olinea/AniLog/internal/models"
	"github.com/Olinea/AniLog/internal/store"
	"github.com/Olinea/AniLog/internal/validate"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
)

// ErrBadCallback marks a callback the verifier refuses: missing or
// mistyped fields, an unknown animal, an object key outside the expected
// shape, or a disagreement with the stored object.
var ErrBadCallback = errors.New("bad callback")

// Event is a provider-delivered upload completion notification. The
// correlation is whichever field the issued policy baked in: animal_id
// for single-object uploads, user_id for delegated grants.
type Event struct {
	Object   string
	Size     int64
	MimeType string
	ETag     string
	AnimalID string
	UserID   string
}

// ParseEvent extracts the required fields from a form-encoded callback
// body. Only image uploads may materialize records.
func ParseEvent(form url.Values) (Event, error) {
	ev := Event{
		Object:   form.Get("object"),
		MimeType: form.Get("mimeType"),
		ETag:     form.Get("etag"),
		AnimalID: form.Get("animal_id"),
		UserID:   form.Get("user_id"),
	}
	if ev.Object == "" || ev.MimeType == "" || ev.ETag == "" {
		return Event{}, fmt.Errorf("%w: missing field", ErrBadCallback)
	}
	if ev.AnimalID == "" && ev.UserID == "" {
		return Event{}, fmt.Errorf("%w: missing correlation", ErrBadCallback)
	}
	if err := validate.MimeTypeImage(ev.MimeType); err != nil {
		return Event{}, fmt.Errorf("%w: %s", ErrBadCallback, err)
	}
	size, err := strconv.ParseInt(form.Get("size"), 10, 64)
	if err != nil || size < 0 {
		return Event{}, fmt.Errorf("%w: bad size", ErrBadCallback)
	}
	ev.Size = size
	return ev, nil
}

// Records is the slice of the resource store the verifier needs.
type Records interface {
	FindAnimalByID(ctx context.Context, animalID string) (*models.Animal, error)
	FindPhotoByURL(ctx context.Context, url string) (*models.Photo, error)
	CreatePhoto(ctx context.Context, p models.Photo) error
}

// ObjectHeader is the piece of the storage client used to cross-check a
// callback against the stored object.
type ObjectHeader interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Verifier applies upload completion callbacks idempotently.
//
// Callbacks are not authenticated by session token and the original
// policy signature is not re-checked here; trust is anchored in the
// provider holding the signed callback contract. When Objects is set,
// the verifier additionally refuses callbacks whose size or etag
// disagree with the object actually in the bucket, so a forged request
// cannot record a file that was never uploaded.
type Verifier struct {
	Store   Records
	Objects ObjectHeader // optional
	Host    string
	Bucket  string
	Prefix  string
}

// Apply validates the event and creates the photo record. Delivering
// the same event twice yields the already-stored record with created
// false; the store's uniqueness guarantee on the URL makes this safe
// under concurrent duplicate deliveries.
func (v *Verifier) Apply(ctx context.Context, ev Event) (photo *models.Photo, created bool, err error) {
	// Grant-scope uploads correlate by operator instead and attach to
	// no animal; only animal-correlated events need the existence check.
	if ev.AnimalID != "" {
		if _, err := v.Store.FindAnimalByID(ctx, ev.AnimalID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, false, fmt.Errorf("%w: unknown animal %s", ErrBadCallback, ev.AnimalID)
			}
			return nil, false, err
		}
	}

	subject, ok := ParseKey(v.Prefix, ev.Object)
	if !ok {
		return nil, false, fmt.Errorf("%w: unexpected key shape %q", ErrBadCallback, ev.Object)
	}

	if v.Objects != nil {
		if err := v.checkObject(ctx, ev); err != nil {
			return nil, false, err
		}
	}

	finalURL := strings.TrimSuffix(v.Host, "/") + "/" + ev.Object

	existing, err := v.Store.FindPhotoByURL(ctx, finalURL)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	p := models.Photo{
		ID:        ulid.Make().String(),
		URL:       finalURL,
		ObjectKey: ev.Object,
		AnimalID:  ev.AnimalID,
		OwnerID:   subject,
		SizeBytes: ev.Size,
		MimeType:  ev.MimeType,
		ETag:      ev.ETag,
		Verified:  false,
		Best:      false,
		CreatedAt: store.NowISO(),
	}
	if err := v.Store.CreatePhoto(ctx, p); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost the race against a duplicate delivery.
			existing, ferr := v.Store.FindPhotoByURL(ctx, finalURL)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return &p, true, nil
}

// checkObject heads the object and compares size and etag with the
// callback's claims.
func (v *Verifier) checkObject(ctx context.Context, ev Event) error {
	out, err := v.Objects.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &v.Bucket,
		Key:    &ev.Object,
	})
	if err != nil {
		return fmt.Errorf("%w: object not in bucket", ErrBadCallback)
	}
	if out.ContentLength != nil && *out.ContentLength != ev.Size {
		return fmt.Errorf("%w: size mismatch", ErrBadCallback)
	}
	if out.ETag != nil && strings.Trim(*out.ETag, "\"") != ev.ETag {
		return fmt.Errorf("%w: etag mismatch", ErrBadCallback)
	}
	return nil
}
