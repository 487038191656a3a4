package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Olinea/AniLog/internal/models"
	"github.com/Olinea/AniLog/internal/password"
	"github.com/Olinea/AniLog/internal/store"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/crypto/bcrypt"
)

type fakeIdentities struct {
	byUsername map[string]models.Identity
}

func (f *fakeIdentities) FindIdentityByUsername(_ context.Context, username string) (*models.Identity, error) {
	id, ok := f.byUsername[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &id, nil
}

func (f *fakeIdentities) PutIdentity(_ context.Context, id models.Identity) error {
	if _, ok := f.byUsername[id.Username]; ok {
		return store.ErrAlreadyExists
	}
	f.byUsername[id.Username] = id
	return nil
}

func formRequest(body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    body,
	}
}

func TestRegisterCreatesOrdinaryIdentity(t *testing.T) {
	app := &App{
		identities: &fakeIdentities{byUsername: map[string]models.Identity{}},
		hasher:     password.Bcrypt{Cost: bcrypt.MinCost},
	}

	resp, err := app.handler(context.Background(), formRequest("username=alice&password=hunter2&email=a@example.com"))
	if err != nil || resp.StatusCode != 201 {
		t.Fatalf("status = %d, err = %v", resp.StatusCode, err)
	}

	var id models.Identity
	if err := json.Unmarshal([]byte(resp.Body), &id); err != nil {
		t.Fatalf("body: %v", err)
	}
	if id.Subject == "" || id.Tier != models.TierOrdinary || !id.Active {
		t.Fatalf("identity = %+v", id)
	}
	if id.HashedPassword != "" {
		t.Fatalf("hashed password leaked in response")
	}
}

func TestRegisterDuplicateUsernameConflicts(t *testing.T) {
	app := &App{
		identities: &fakeIdentities{byUsername: map[string]models.Identity{}},
		hasher:     password.Bcrypt{Cost: bcrypt.MinCost},
	}
	ctx := context.Background()

	if resp, _ := app.handler(ctx, formRequest("username=alice&password=hunter2")); resp.StatusCode != 201 {
		t.Fatalf("first register: status = %d", resp.StatusCode)
	}
	if resp, _ := app.handler(ctx, formRequest("username=alice&password=other")); resp.StatusCode != 409 {
		t.Fatalf("duplicate register: status = %d, want 409", resp.StatusCode)
	}
}
