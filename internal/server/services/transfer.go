package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/arkadym/sealbox/internal/common"
	sc "github.com/arkadym/sealbox/internal/server/config"
	"github.com/arkadym/sealbox/internal/server/models"
	"github.com/arkadym/sealbox/internal/server/repositories/repomanager"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in)
	}
)

// UploadParams carries one ciphertext blob and the metadata traveling with
// it. Body is already encrypted client-side; the server only stores and
// gates it.
type UploadParams struct {
	FileName string
	Nonce    string
	Chunked  bool
	Size     int64
	Body     io.Reader
}

// TransferService moves ciphertext blobs in and out of object storage and
// enforces who may fetch what.
type TransferService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewTransferService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *TransferService {
	return &TransferService{db: db, repomanager: m, config: cfg}
}

func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("files/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *TransferService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Upload stores the ciphertext under a fresh random key and records the
// file row. The envelope nonce rides in metadata only; it is not secret,
// it just has to survive alongside the blob.
func (s *TransferService) Upload(ctx context.Context, ownerID string, p *UploadParams) (*models.FileObject, error) {
	if p.FileName == "" {
		return nil, fmt.Errorf("%w: file name is required", common.ErrValidation)
	}
	if p.Nonce == "" {
		return nil, fmt.Errorf("%w: envelope nonce is required", common.ErrValidation)
	}

	client, err := s.getS3Client(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          p.Body,
		ContentLength: aws.Int64(p.Size),
	}); err != nil {
		return nil, fmt.Errorf("%w: storing ciphertext: %w", common.ErrUnavailable, err)
	}

	file := &models.FileObject{
		OwnerID:    ownerID,
		FileName:   p.FileName,
		Nonce:      p.Nonce,
		StorageKey: key,
		Size:       p.Size,
		Chunked:    p.Chunked,
	}
	created, err := s.repomanager.Files(s.db).Create(ctx, file)
	if err != nil {
		// Best effort: the row never landed, do not strand the blob.
		_, _ = deleteObject(client, ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &key})
		return nil, err
	}
	return created, nil
}

// authorizeFetch decides whether userID may read the file, and whether the
// download disposition is allowed. Owners always may. Recipients need an
// accepted share; a view-only share refuses the download disposition.
func (s *TransferService) authorizeFetch(ctx context.Context, userID string, file *models.FileObject, download bool) error {
	if file.OwnerID == userID {
		return nil
	}

	share, err := s.repomanager.Shares(s.db).GetForFileAndRecipient(ctx, file.ID, userID)
	if err != nil {
		return err
	}
	if share.Status != models.ShareStatusAccepted {
		return common.ErrNotFound
	}
	if download && share.Permission != models.PermissionDownload {
		return common.ErrAuthentication
	}
	return nil
}

// Fetch returns the file metadata and a reader over the ciphertext.
// Callers own closing the reader.
func (s *TransferService) Fetch(ctx context.Context, userID, fileID string, download bool) (*models.FileObject, io.ReadCloser, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorizeFetch(ctx, userID, file, download); err != nil {
		return nil, nil, err
	}

	client, err := s.getS3Client(ctx)
	if err != nil {
		return nil, nil, err
	}

	bucket := s.config.S3Bucket
	out, err := getObject(client, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &file.StorageKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: fetching ciphertext: %w", common.ErrUnavailable, err)
	}
	return file, out.Body, nil
}

// ListFiles returns the metadata of the user's own files.
func (s *TransferService) ListFiles(ctx context.Context, ownerID string) ([]*models.FileObject, error) {
	return s.repomanager.Files(s.db).ListForOwner(ctx, ownerID)
}
