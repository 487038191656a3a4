// Package main handles login: it verifies credentials and mints the
// session claim token, returned both as a cookie and a bearer body.
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
	"github.com/Olinea/AniLog/internal/password"
	"github.com/Olinea/AniLog/internal/store"
	"github.com/Olinea/AniLog/internal/token"
	"github.com/Olinea/AniLog/internal/validate"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// usernameFinder is the store slice login needs.
type usernameFinder interface {
	FindIdentityByUsername(ctx context.Context, username string) (*models.Identity, error)
}

// App holds the application state, including configuration and clients.
type App struct {
	env        config.Env
	identities usernameFinder
	codec      *token.Codec
	hasher     password.Hasher
}

// loginResponse is the bearer-token body alongside the session cookie.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
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
		env:        env,
		identities: &store.Repo{DB: db, Table: env.Table},
		codec:      token.NewCodec(env.SessionSecret),
		hasher:     password.Bcrypt{},
	}
	lambda.Start(app.handler)
}

// handler verifies the submitted credentials and issues a token. Wrong
// username and wrong password share one response.
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

	id, err := a.identities.FindIdentityByUsername(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("login: lookup err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}
	if id == nil || !id.Active || !a.hasher.Verify(pass, id.HashedPassword) {
		return httpx.Error(http.StatusUnauthorized, "incorrect username or password")
	}

	tok, err := a.codec.Issue(id.Subject, nil, a.env.SessionTTL)
	if err != nil {
		log.Printf("login: issue err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "token error")
	}

	resp, _ := httpx.JSON(http.StatusOK, loginResponse{AccessToken: tok, TokenType: "bearer"})
	cookie := httpx.SessionCookie(authn.SessionCookieName, tok, int(a.env.SessionTTL.Seconds()))
	return httpx.WithCookie(resp, cookie), nil
}
