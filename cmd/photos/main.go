// Package main serves photo listing, moderation, and deletion.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Olinea/AniLog/internal/authn"
	"github.com/Olinea/AniLog/internal/awsutil"
	"github.com/Olinea/AniLog/internal/config"
	"github.com/Olinea/AniLog/internal/httpx"
	"github.com/Olinea/AniLog/internal/models"
	"github.com/Olinea/AniLog/internal/store"
	"github.com/Olinea/AniLog/internal/token"
	"github.com/Olinea/AniLog/internal/validate"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const maxListLimit = 100

// photoStore is the store slice this handler needs.
type photoStore interface {
	FindPhotoByURL(ctx context.Context, url string) (*models.Photo, error)
	ListPhotosByAnimal(ctx context.Context, animalID string, limit int32) ([]models.Photo, error)
	UpdatePhotoFlags(ctx context.Context, url string, verified, best *bool) (*models.Photo, error)
	DeletePhoto(ctx context.Context, url string) error
}

// App holds the application state.
type App struct {
	store photoStore
	auth  *authn.Authenticator
	chain []authn.Extractor
}

func main() {
	env := config.MustLoad()
	cfg, err := awsutil.Load(context.Background(), env.Region)
	if err != nil {
		log.Fatal(err)
	}
	db := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if ep := awsutil.Endpoint(); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
	})
	repo := &store.Repo{DB: db, Table: env.Table}

	app := &App{
		store: repo,
		auth: &authn.Authenticator{
			Codec:      token.NewCodec(env.SessionSecret),
			Identities: repo,
		},
		chain: authn.DefaultChain(),
	}
	lambda.Start(app.handler)
}

// moderationPatch carries the flag flips only a manager may apply.
type moderationPatch struct {
	PhotoURL string `json:"photo_url"`
	Verified *bool  `json:"verified"`
	Best     *bool  `json:"best"`
}

func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	id, err := a.auth.RequireIdentity(ctx, authn.ResolveCarrier(req, a.chain))
	if err != nil {
		if errors.Is(err, authn.ErrUnauthenticated) {
			return httpx.Error(http.StatusUnauthorized, "not authenticated")
		}
		log.Printf("photos: identity err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}

	switch req.RequestContext.HTTP.Method {
	case http.MethodGet:
		return a.list(ctx, req)
	case http.MethodPatch:
		return a.moderate(ctx, req, id)
	case http.MethodDelete:
		return a.remove(ctx, req, id)
	default:
		return httpx.Error(http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *App) list(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	animalID := req.QueryStringParameters["animal_id"]
	if animalID == "" {
		return httpx.Error(http.StatusBadRequest, "animal_id required")
	}
	limit64, _ := strconv.ParseInt(req.QueryStringParameters["limit"], 10, 32)
	limit := validate.LimitOK(int32(limit64), maxListLimit)

	photos, err := a.store.ListPhotosByAnimal(ctx, animalID, limit)
	if err != nil {
		log.Printf("photos: list err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}
	return httpx.JSON(http.StatusOK, photos)
}

// moderate flips verified/best; manager tier only.
func (a *App) moderate(ctx context.Context, req events.APIGatewayV2HTTPRequest, id *models.Identity) (events.APIGatewayV2HTTPResponse, error) {
	if err := authn.RequireTier(id, models.TierManager); err != nil {
		return httpx.Error(http.StatusForbidden, "insufficient tier for moderation")
	}
	body, err := httpx.Body(req)
	if err != nil {
		return httpx.Error(http.StatusBadRequest, "invalid body encoding")
	}
	var patch moderationPatch
	if err := json.Unmarshal(body, &patch); err != nil || patch.PhotoURL == "" {
		return httpx.Error(http.StatusBadRequest, "invalid patch body")
	}

	photo, err := a.store.UpdatePhotoFlags(ctx, patch.PhotoURL, patch.Verified, patch.Best)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return httpx.Error(http.StatusNotFound, "photo not found")
		}
		log.Printf("photos: update err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}
	return httpx.JSON(http.StatusOK, photo)
}

// remove deletes a photo record; allowed for the uploader or a manager.
func (a *App) remove(ctx context.Context, req events.APIGatewayV2HTTPRequest, id *models.Identity) (events.APIGatewayV2HTTPResponse, error) {
	url := req.QueryStringParameters["url"]
	if url == "" {
		return httpx.Error(http.StatusBadRequest, "url required")
	}
	photo, err := a.store.FindPhotoByURL(ctx, url)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return httpx.Error(http.StatusNotFound, "photo not found")
		}
		log.Printf("photos: lookup err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}
	if photo.OwnerID != id.Subject && !id.Manager() {
		return httpx.Error(http.StatusForbidden, "not the uploader")
	}
	if err := a.store.DeletePhoto(ctx, url); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("photos: delete err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}
	return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNoContent}, nil
}
