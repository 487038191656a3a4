// Package main receives storage-provider upload completion callbacks
// and records the uploaded photo.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/Olinea/AniLog/internal/awsutil"
	"github.com/Olinea/AniLog/internal/config"
	"github.com/Olinea/AniLog/internal/httpx"
	"github.com/Olinea/AniLog/internal/store"
	"github.com/Olinea/AniLog/internal/upload"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// App holds the application state.
type App struct {
	verifier *upload.Verifier
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

	// Object cross-checking needs a storage client pointed at the
	// provider's S3-compatible endpoint; opt in explicitly.
	var objects upload.ObjectHeader
	if os.Getenv("STORAGE_VERIFY_OBJECTS") == "true" {
		objects = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(env.StorageHost)
			o.UsePathStyle = true
		})
	}

	app := &App{
		verifier: &upload.Verifier{
			Store:   &store.Repo{DB: db, Table: env.Table},
			Objects: objects,
			Host:    env.StorageHost,
			Bucket:  env.StorageBucket,
			Prefix:  env.DirPrefix,
		},
	}
	lambda.Start(app.handler)
}

// handler applies one provider callback. Duplicate deliveries succeed
// without creating a second record.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	form, err := httpx.ParseForm(req)
	if err != nil {
		return httpx.Error(http.StatusBadRequest, err.Error())
	}
	ev, err := upload.ParseEvent(form)
	if err != nil {
		return httpx.Error(http.StatusBadRequest, err.Error())
	}

	photo, created, err := a.verifier.Apply(ctx, ev)
	if err != nil {
		if errors.Is(err, upload.ErrBadCallback) {
			return httpx.Error(http.StatusBadRequest, err.Error())
		}
		log.Printf("callback: apply err: %v", err)
		return httpx.Error(http.StatusInternalServerError, "db error")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return httpx.JSON(status, photo)
}
