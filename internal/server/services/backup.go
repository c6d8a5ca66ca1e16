package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	sc "github.com/dmitrijs2005/paykeeper/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	presignExpiry     = 15 * time.Minute
	backupContentType = "application/octet-stream"
)

// presigner is the part of *s3.PresignClient the backup service needs.
type presigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// BackupService hands out presigned PUT URLs for encrypted client backups.
// The server never sees the backup contents.
type BackupService struct {
	config *sc.Config
	now    func() time.Time

	mu           sync.Mutex
	presigner    presigner
	newPresigner func(ctx context.Context) (presigner, error)
}

func NewBackupService(cfg *sc.Config) *BackupService {
	s := &BackupService{config: cfg, now: time.Now}
	s.newPresigner = s.s3Presigner
	return s
}

// objectKey returns a fresh key under the user's dated backup prefix.
func (s *BackupService) objectKey(userID string) string {
	d := s.now().UTC()
	return fmt.Sprintf("backups/%s/%s/%s.bin", userID, d.Format("2006/01/02"), uuid.NewString())
}

// s3Presigner builds a path-style client, which MinIO requires.
func (s *BackupService) s3Presigner(ctx context.Context) (presigner, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser, s.config.S3RootPassword, "",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})
	return s3.NewPresignClient(client), nil
}

func (s *BackupService) getPresigner(ctx context.Context) (presigner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presigner == nil {
		p, err := s.newPresigner(ctx)
		if err != nil {
			return nil, err
		}
		s.presigner = p
	}
	return s.presigner, nil
}

// GetPresignedPutURL returns the object key and a URL the client can PUT the
// backup to within presignExpiry.
func (s *BackupService) GetPresignedPutURL(ctx context.Context, userID string) (string, string, error) {
	p, err := s.getPresigner(ctx)
	if err != nil {
		return "", "", err
	}

	key := s.objectKey(userID)
	req, err := p.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(backupContentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign %s: %w", key, err)
	}
	return key, req.URL, nil
}
