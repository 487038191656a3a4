// Package awsutil provides utilities for loading AWS configuration.
package awsutil

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
)

// Endpoint returns the custom endpoint URL, if any. Non-empty when the
// process points at localstack or an S3-compatible storage provider.
func Endpoint() string {
	return os.Getenv("AWS_ENDPOINT_URL") // e.g., http://localstack:4566
}

// Load loads the AWS configuration for the given region. Callers that
// honor a custom endpoint set BaseEndpoint on their service client from
// Endpoint().
func Load(ctx context.Context, region string) (aws.Config, error) {
	return awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(region))
}
