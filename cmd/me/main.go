// Package main returns the identity behind the carried credential.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/Olinea/AniLog/internal/authn"
	"github.com/Olinea/AniLog/internal/awsutil"
	"github.com/Olinea/AniLog/internal/config"
	"github.com/Olinea/AniLog/internal/httpx"
	"github.com/Olinea/AniLog/internal/store"
	"github.com/Olinea/AniLog/internal/token"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// App holds the application state.
type App struct {
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

	app := &App{
		auth: &authn.Authenticator{
			Codec:      token.NewCodec(env.SessionSecret),
			Identities: &store.Repo{DB: db, Table: env.Table},
		},
		chain: authn.DefaultChain(),
	}
	lambda.Start(app.handler)
}

func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	id, err := a.auth.ResolveIdentity(ctx, authn.ResolveCarrier(req, a.chain))
	if err != nil {
		log.Printf("me: resolve err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}
	if id == nil {
		return httpx.JSON(http.StatusUnauthorized, map[string]any{
			"detail": "Authentication failed",
			"code":   http.StatusUnauthorized,
		})
	}
	return httpx.JSON(http.StatusOK, id)
}
