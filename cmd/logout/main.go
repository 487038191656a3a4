// Package main handles logout by expiring the session cookie. Tokens
// themselves stay valid until expiry; there is no revocation list.
package main

import (
	"context"
	"net/http"

	"github.com/Olinea/AniLog/internal/authn"
	"github.com/Olinea/AniLog/internal/httpx"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, _ := httpx.JSON(http.StatusOK, map[string]string{"message": "logged out"})
	return httpx.WithCookie(resp, httpx.SessionCookie(authn.SessionCookieName, "", 0)), nil
}

func main() {
	lambda.Start(handler)
}
