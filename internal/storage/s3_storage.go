package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"agrilift/portal/internal/config"
)

// IDocumentStorage resolves stored document file references to time-limited
// download URLs. The core only records file keys as metadata; uploads and
// file lifecycle are handled elsewhere.
type IDocumentStorage interface {
	GeneratePresignedGetURL(ctx context.Context, fileKey string) (string, error)
}

// s3DocumentStorage implements IDocumentStorage.
type s3DocumentStorage struct {
	cfg           *config.Config
	s3Client      *s3.Client
	presignClient *s3.PresignClient
}

// NewS3DocumentStorage creates a new S3-backed document storage service.
func NewS3DocumentStorage(cfg *config.Config) (IDocumentStorage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		// Static credentials from config for simplicity; prefer IAM roles in production.
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	presignClient := s3.NewPresignClient(s3Client)

	return &s3DocumentStorage{
		cfg:           cfg,
		s3Client:      s3Client,
		presignClient: presignClient,
	}, nil
}

// GeneratePresignedGetURL creates a pre-signed URL for downloading a stored
// document file.
func (s *s3DocumentStorage) GeneratePresignedGetURL(ctx context.Context, fileKey string) (string, error) {
	presignParams := &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(fileKey),
	}

	presignedReq, err := s.presignClient.PresignGetObject(ctx, presignParams, s3.WithPresignExpires(s.cfg.DocumentURLTTL))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned GET URL for key %s: %w", fileKey, err)
	}

	return presignedReq.URL, nil
}
