// Package store is the resource-store collaborator: identities, animals,
// and photo records in a single DynamoDB table.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Olinea/AniLog/internal/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrNotFound is returned when a looked-up item does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a conditional create hits a
// duplicate natural key.
var ErrAlreadyExists = errors.New("already exists")

// Index names on the table.
const (
	usernameIndex = "username-index"
	animalIndex   = "animal-index"
)

// Store is the full collaborator surface handlers depend on. Consumers
// that need less declare their own narrow interfaces.
type Store interface {
	FindIdentityBySubject(ctx context.Context, subject string) (*models.Identity, error)
	FindIdentityByUsername(ctx context.Context, username string) (*models.Identity, error)
	PutIdentity(ctx context.Context, id models.Identity) error
	FindAnimalByID(ctx context.Context, animalID string) (*models.Animal, error)
	FindPhotoByURL(ctx context.Context, url string) (*models.Photo, error)
	CreatePhoto(ctx context.Context, p models.Photo) error
	ListPhotosByAnimal(ctx context.Context, animalID string, limit int32) ([]models.Photo, error)
	UpdatePhotoFlags(ctx context.Context, url string, verified, best *bool) (*models.Photo, error)
	DeletePhoto(ctx context.Context, url string) error
}

// Repo wraps a DynamoDB client and table name.
type Repo struct {
	DB    *dynamodb.Client
	Table string
}

var _ Store = (*Repo)(nil)

// NowISO returns the current time in ISO8601 format.
func NowISO() string { return time.Now().UTC().Format(time.RFC3339) }

// Key constructors for the single-table layout.
func IdentityKeys(subject string) (pk, sk string) {
	return fmt.Sprintf("USER#%s", subject), "PROFILE"
}

func AnimalKeys(animalID string) (pk, sk string) {
	return fmt.Sprintf("ANIMAL#%s", animalID), "PROFILE"
}

// PhotoKeys keys a photo record by its final object URL; the table's
// uniqueness guarantee on this key is what makes callback application
// idempotent under concurrent duplicate deliveries.
func PhotoKeys(url string) (pk, sk string) {
	return fmt.Sprintf("PHOTO#%s", url), "RECORD"
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func awsStr(s string) *string { return &s }

// getItem loads and unmarshals one item into out, or ErrNotFound.
func (r *Repo) getItem(ctx context.Context, pk, sk string, out any) error {
	res, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.Table,
		Key:       itemKey(pk, sk),
	})
	if err != nil {
		return err
	}
	if len(res.Item) == 0 {
		return ErrNotFound
	}
	return attributevalue.UnmarshalMap(res.Item, out)
}

// FindIdentityBySubject looks up an identity by its stable subject id.
func (r *Repo) FindIdentityBySubject(ctx context.Context, subject string) (*models.Identity, error) {
	pk, sk := IdentityKeys(subject)
	var id models.Identity
	if err := r.getItem(ctx, pk, sk, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// FindIdentityByUsername resolves the login name through the username
// index.
func (r *Repo) FindIdentityByUsername(ctx context.Context, username string) (*models.Identity, error) {
	res, err := r.DB.Query(ctx, &dynamodb.QueryInput{
		TableName:              &r.Table,
		IndexName:              awsStr(usernameIndex),
		KeyConditionExpression: awsStr("username = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: username},
		},
		Limit: aws1(),
	})
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, ErrNotFound
	}
	var id models.Identity
	if err := attributevalue.UnmarshalMap(res.Items[0], &id); err != nil {
		return nil, err
	}
	return &id, nil
}

func aws1() *int32 { one := int32(1); return &one }

// PutIdentity inserts a new identity, refusing duplicates.
func (r *Repo) PutIdentity(ctx context.Context, id models.Identity) error {
	id.PK, id.SK = IdentityKeys(id.Subject)
	item, err := attributevalue.MarshalMap(id)
	if err != nil {
		return err
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &r.Table,
		Item:                item,
		ConditionExpression: awsStr("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	return mapConditional(err, ErrAlreadyExists)
}

// FindAnimalByID checks the referenced animal exists.
func (r *Repo) FindAnimalByID(ctx context.Context, animalID string) (*models.Animal, error) {
	pk, sk := AnimalKeys(animalID)
	var a models.Animal
	if err := r.getItem(ctx, pk, sk, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindPhotoByURL looks up a photo record by its unique object URL.
func (r *Repo) FindPhotoByURL(ctx context.Context, url string) (*models.Photo, error) {
	pk, sk := PhotoKeys(url)
	var p models.Photo
	if err := r.getItem(ctx, pk, sk, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePhoto inserts a photo record if and only if no record with the
// same URL exists; ErrAlreadyExists otherwise. This is the atomic
// create-if-absent the callback verifier relies on.
func (r *Repo) CreatePhoto(ctx context.Context, p models.Photo) error {
	p.PK, p.SK = PhotoKeys(p.URL)
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return err
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &r.Table,
		Item:                item,
		ConditionExpression: awsStr("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	return mapConditional(err, ErrAlreadyExists)
}

// ListPhotosByAnimal returns up to limit photo records for an animal.
func (r *Repo) ListPhotosByAnimal(ctx context.Context, animalID string, limit int32) ([]models.Photo, error) {
	res, err := r.DB.Query(ctx, &dynamodb.QueryInput{
		TableName:              &r.Table,
		IndexName:              awsStr(animalIndex),
		KeyConditionExpression: awsStr("animal_id = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: animalID},
		},
		Limit: &limit,
	})
	if err != nil {
		return nil, err
	}
	photos := make([]models.Photo, 0, len(res.Items))
	for _, item := range res.Items {
		var p models.Photo
		if err := attributevalue.UnmarshalMap(item, &p); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, nil
}

// UpdatePhotoFlags flips the moderation flags that are present and
// returns the updated record. Callers gate this on the manager tier.
func (r *Repo) UpdatePhotoFlags(ctx context.Context, url string, verified, best *bool) (*models.Photo, error) {
	sets := ""
	vals := map[string]types.AttributeValue{}
	if verified != nil {
		sets += "verified = :v"
		vals[":v"] = &types.AttributeValueMemberBOOL{Value: *verified}
	}
	if best != nil {
		if sets != "" {
			sets += ", "
		}
		sets += "best = :b"
		vals[":b"] = &types.AttributeValueMemberBOOL{Value: *best}
	}
	if sets == "" {
		return r.FindPhotoByURL(ctx, url)
	}

	pk, sk := PhotoKeys(url)
	res, err := r.DB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &r.Table,
		Key:                       itemKey(pk, sk),
		UpdateExpression:          awsStr("SET " + sets),
		ConditionExpression:       awsStr("attribute_exists(PK)"),
		ExpressionAttributeValues: vals,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, mapConditional(err, ErrNotFound)
	}
	var p models.Photo
	if err := attributevalue.UnmarshalMap(res.Attributes, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePhoto removes a photo record, ErrNotFound when absent.
func (r *Repo) DeletePhoto(ctx context.Context, url string) error {
	pk, sk := PhotoKeys(url)
	_, err := r.DB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &r.Table,
		Key:                 itemKey(pk, sk),
		ConditionExpression: awsStr("attribute_exists(PK)"),
	})
	return mapConditional(err, ErrNotFound)
}

// mapConditional converts a DynamoDB conditional-check failure into the
// domain sentinel; other errors pass through.
func mapConditional(err, sentinel error) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return sentinel
	}
	return err
}
