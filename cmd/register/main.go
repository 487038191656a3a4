// Package main creates new identities.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/Olinea/AniLog/internal/awsutil"
	"github.com/Olinea/AniLog/internal/config"
	"github.com/Olinea/AniLog/internal/httpx"
	"github.com/Olinea/AniLog/internal/models"
	"github.com/Olinea/AniLog/internal/password"
	"github.com/Olinea/AniLog/internal/store"
	"github.com/Olinea/AniLog/internal/validate"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/oklog/ulid/v2"
)

// identityWriter is the store slice registration needs.
type identityWriter interface {
	FindIdentityByUsername(ctx context.Context, username string) (*models.Identity, error)
	PutIdentity(ctx context.Context, id models.Identity) error
}

// App holds the application state.
type App struct {
	identities identityWriter
	hasher     password.Hasher
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

	app := &App{
		identities: &store.Repo{DB: db, Table: env.Table},
		hasher:     password.Bcrypt{},
	}
	lambda.Start(app.handler)
}

// handler registers a new ordinary identity. Duplicate usernames
// conflict.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	form, err := httpx.ParseForm(req)
	if err != nil {
		return httpx.Error(http.StatusBadRequest, err.Error())
	}
	username := form.Get("username")
	pass := form.Get("password")
	if err := validate.UsernameOK(username); err != nil {
		return httpx.Error(http.StatusBadRequest, err.Error())
	}
	if err := validate.PasswordOK(pass); err != nil {
		return httpx.Error(http.StatusBadRequest, err.Error())
	}

	if _, err := a.identities.FindIdentityByUsername(ctx, username); err == nil {
		return httpx.Error(http.StatusConflict, "username already taken")
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("register: lookup err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}

	hashed, err := a.hasher.Hash(pass)
	if err != nil {
		log.Printf("register: hash err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "hash error")
	}

	id := models.Identity{
		Subject:        ulid.Make().String(),
		Username:       username,
		Email:          form.Get("email"),
		HashedPassword: hashed,
		Tier:           models.TierOrdinary,
		Active:         true,
		CreatedAt:      store.NowISO(),
	}
	if err := a.identities.PutIdentity(ctx, id); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return httpx.Error(http.StatusConflict, "username already taken")
		}
		log.Printf("register: put err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}
	return httpx.JSON(http.StatusCreated, id)
}
