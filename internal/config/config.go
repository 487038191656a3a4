// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default scopes for issued upload policies.
const (
	defaultUploadTTLSeconds = 300  // single-object upload window
	defaultGrantTTLSeconds  = 1800 // delegated-permission grant window

	defaultUploadMaxBytes = 10 << 20  // 10 MiB per single upload
	defaultGrantMaxBytes  = 100 << 20 // 100 MiB for delegated grants
)

// Env holds the configuration values for the application.
type Env struct {
	Region string
	Table  string

	// Session token signing.
	SessionSecret string
	SessionTTL    time.Duration

	// Storage provider credentials and layout. StorageSecret signs upload
	// policies and is distinct from SessionSecret.
	StorageAccessID string
	StorageSecret   string
	StorageHost     string
	StorageBucket   string
	DirPrefix       string
	CallbackURL     string

	UploadTTL      time.Duration
	GrantTTL       time.Duration
	UploadMaxBytes int64
	GrantMaxBytes  int64

	DevBypassAuth bool
}

// MustLoad reads the environment variables and returns an Env struct.
func MustLoad() Env {
	uploadSec, _ := strconv.Atoi(get("UPLOAD_POLICY_TTL_SECONDS", strconv.Itoa(defaultUploadTTLSeconds)))
	grantSec, _ := strconv.Atoi(get("GRANT_POLICY_TTL_SECONDS", strconv.Itoa(defaultGrantTTLSeconds)))
	sessionMin, _ := strconv.Atoi(get("SESSION_TTL_MINUTES", "30"))
	uploadMax, _ := strconv.ParseInt(get("UPLOAD_MAX_BYTES", strconv.Itoa(defaultUploadMaxBytes)), 10, 64)
	grantMax, _ := strconv.ParseInt(get("GRANT_MAX_BYTES", strconv.Itoa(defaultGrantMaxBytes)), 10, 64)

	e := Env{
		Region: get("AWS_REGION", "us-east-1"),
		Table:  must("DDB_TABLE"),

		SessionSecret: must("SESSION_SECRET"),
		SessionTTL:    time.Duration(sessionMin) * time.Minute,

		StorageAccessID: must("STORAGE_ACCESS_ID"),
		StorageSecret:   must("STORAGE_ACCESS_SECRET"),
		StorageHost:     must("STORAGE_HOST"),
		StorageBucket:   must("STORAGE_BUCKET"),
		DirPrefix:       get("STORAGE_DIR_PREFIX", "user/"),
		CallbackURL:     must("STORAGE_CALLBACK_URL"),

		UploadTTL:      time.Duration(uploadSec) * time.Second,
		GrantTTL:       time.Duration(grantSec) * time.Second,
		UploadMaxBytes: uploadMax,
		GrantMaxBytes:  grantMax,

		DevBypassAuth: get("DEV_BYPASS_AUTH", "") == "true",
	}
	return e
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// must returns the value of the environment variable k or panics if not set.
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic(fmt.Errorf("missing env %s", k))
	}
	return v
}
