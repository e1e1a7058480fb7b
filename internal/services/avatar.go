package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const avatarUploadTTL = 5 * time.Minute

// AvatarService issues pre-signed upload URLs for avatar images. The
// client uploads directly to object storage and then saves the
// returned URL through the profile update.
type AvatarService struct {
	s3Client *s3.Client
	s3Bucket string
	endpoint string
	region   string
}

// NewAvatarService creates a new avatar service
func NewAvatarService(awsRegion, s3Bucket, accessKey, secretKey, endpoint string) (*AvatarService, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(awsRegion),
	}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &AvatarService{
		s3Client: s3Client,
		s3Bucket: s3Bucket,
		endpoint: endpoint,
		region:   awsRegion,
	}, nil
}

// UploadResponse carries a pre-signed upload URL and the public URL
// the avatar will have once uploaded.
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	AvatarURL string `json:"avatar_url"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignUpload generates a pre-signed PUT URL for a user's avatar
// image.
func (s *AvatarService) PresignUpload(ctx context.Context, userID, contentType string) (*UploadResponse, error) {
	s3Key := fmt.Sprintf("avatars/%s/%s.jpg", userID, uuid.New().String())

	presignClient := s3.NewPresignClient(s.s3Client)
	request, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Bucket),
		Key:         aws.String(s3Key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = avatarUploadTTL
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	avatarURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.s3Bucket, s.region, s3Key)
	if s.endpoint != "" {
		avatarURL = fmt.Sprintf("%s/%s/%s", s.endpoint, s.s3Bucket, s3Key)
	}

	return &UploadResponse{
		UploadURL: request.URL,
		AvatarURL: avatarURL,
		ExpiresIn: int(avatarUploadTTL.Seconds()),
	}, nil
}
