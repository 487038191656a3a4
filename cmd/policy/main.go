// Package main issues signed upload policies for direct-to-storage
// uploads, gated on the caller's identity and trust tier.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/Olinea/AniLog/internal/authn"
	"github.com/Olinea/AniLog/internal/awsutil"
	"github.com/Olinea/AniLog/internal/config"
	"github.com/Olinea/AniLog/internal/httpx"
	"github.com/Olinea/AniLog/internal/models"
	"github.com/Olinea/AniLog/internal/policy"
	"github.com/Olinea/AniLog/internal/store"
	"github.com/Olinea/AniLog/internal/token"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// policyStore is the store slice this handler needs.
type policyStore interface {
	FindIdentityBySubject(ctx context.Context, subject string) (*models.Identity, error)
	FindAnimalByID(ctx context.Context, animalID string) (*models.Animal, error)
}

// App holds the application state, including configuration and clients.
type App struct {
	env    config.Env
	store  policyStore
	auth   *authn.Authenticator
	signer *policy.Signer
	chain  []authn.Extractor
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
		env:   env,
		store: repo,
		auth: &authn.Authenticator{
			Codec:      token.NewCodec(env.SessionSecret),
			Identities: repo,
		},
		signer: &policy.Signer{
			AccessID:       env.StorageAccessID,
			Secret:         env.StorageSecret,
			Host:           env.StorageHost,
			Bucket:         env.StorageBucket,
			DirPrefix:      env.DirPrefix,
			CallbackURL:    env.CallbackURL,
			UploadTTL:      env.UploadTTL,
			GrantTTL:       env.GrantTTL,
			UploadMaxBytes: env.UploadMaxBytes,
			GrantMaxBytes:  env.GrantMaxBytes,
		},
		chain: authn.DefaultChain(),
	}
	lambda.Start(app.handler)
}

// identity resolves the caller, supporting a dev bypass header.
func (a *App) identity(ctx context.Context, req events.APIGatewayV2HTTPRequest) (*models.Identity, error) {
	if a.env.DevBypassAuth {
		if sub := httpx.Header(req.Headers, "x-user-sub"); sub != "" {
			id, err := a.store.FindIdentityBySubject(ctx, sub)
			if err == nil && id != nil && id.Active {
				return id, nil
			}
		}
	}
	return a.auth.RequireIdentity(ctx, authn.ResolveCarrier(req, a.chain))
}

// handler issues either a single-object upload policy (animal_id) or
// the broader delegated grant (scope=delegate). Only elevated callers
// may name a target_user_id other than themselves.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	id, err := a.identity(ctx, req)
	if err != nil {
		if errors.Is(err, authn.ErrUnauthenticated) {
			return httpx.Error(http.StatusUnauthorized, "not authenticated")
		}
		log.Printf("policy: identity err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}

	q := req.QueryStringParameters
	target := q["target_user_id"]
	if target != "" && target != id.Subject && !id.Elevated() {
		return httpx.Error(http.StatusForbidden, "insufficient tier for delegation")
	}

	if q["scope"] == "delegate" {
		if !id.Elevated() {
			return httpx.Error(http.StatusForbidden, "insufficient tier for delegation")
		}
		cred, err := a.signer.IssueGrant(id, target)
		if err != nil {
			log.Printf("policy: grant err: %v", err)
			return httpx.Error(http.StatusInternalServerError, "policy error")
		}
		return httpx.JSON(http.StatusOK, cred)
	}

	animalID := q["animal_id"]
	if animalID == "" {
		return httpx.Error(http.StatusBadRequest, "animal_id required")
	}
	if _, err := a.store.FindAnimalByID(ctx, animalID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return httpx.Error(http.StatusNotFound, "animal not found")
		}
		log.Printf("policy: animal lookup err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}

	cred, err := a.signer.IssueUpload(id, target, animalID)
	if err != nil {
		log.Printf("policy: issue err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "policy error")
	}
	return httpx.JSON(http.StatusOK, cred)
}
