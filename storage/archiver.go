package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// uploads in flight per Archive call
const archiveConcurrency = 4

// Archiver copies a run's artifacts somewhere durable
type Archiver interface {
	Archive(ctx context.Context, runID, tag string, paths []string) ([]string, error)
}

// NopArchiver is used when no bucket is configured
type NopArchiver struct{}

func (NopArchiver) Archive(context.Context, string, string, []string) ([]string, error) {
	return nil, nil
}

// objectPutter is the slice of the S3 client the archiver needs
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ArchiverConfig holds configuration for S3Archiver
type S3ArchiverConfig struct {
	Bucket   string
	Region   string
	Endpoint string // optional, for MinIO or LocalStack
	Prefix   string // optional key prefix, e.g. "exoml/"
}

// S3Archiver uploads artifacts to <prefix><tag>/<runID>/<file name>
type S3Archiver struct {
	client objectPutter
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3Archiver creates an archiver using the default AWS credential chain
func NewS3Archiver(ctx context.Context, cfg S3ArchiverConfig, logger *zap.Logger) (*S3Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Archiver(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newS3Archiver(client objectPutter, bucket, prefix string, logger *zap.Logger) *S3Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Archiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// Archive uploads paths and returns their s3:// URIs in input order.
// The first upload error cancels the remaining uploads.
func (a *S3Archiver) Archive(ctx context.Context, runID, tag string, paths []string) ([]string, error) {
	uris := make([]string, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(archiveConcurrency)

	for i, p := range paths {
		g.Go(func() error {
			key := a.key(runID, tag, p)
			if err := a.upload(ctx, key, p); err != nil {
				return err
			}
			uris[i] = "s3://" + a.bucket + "/" + key
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Info("artifacts archived",
		zap.String("run_id", runID),
		zap.String("dataset", tag),
		zap.Int("count", len(uris)))
	return uris, nil
}

func (a *S3Archiver) key(runID, tag, localPath string) string {
	return strings.TrimPrefix(path.Join(a.prefix, tag, runID, filepath.Base(localPath)), "/")
}

func (a *S3Archiver) upload(ctx context.Context, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", localPath, err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put failed for %s: %w", key, err)
	}
	return nil
}
