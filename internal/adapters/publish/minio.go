// Package publish uploads packaged artifacts to the package registry,
// an S3-compatible object store.
package publish

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// Logger defines the logging interface for the publisher.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// Options configures the registry connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
}

// RegistryPublisher implements domain.Publisher against an
// S3-compatible registry bucket. Object keys are derived from library
// and version only, so re-publishing a version overwrites the same
// objects; the registry decides whether to accept that.
type RegistryPublisher struct {
	client *minio.Client
	bucket string
	logger Logger
}

// NewRegistryPublisher creates a publisher for the given registry.
func NewRegistryPublisher(opts Options, log Logger) (*RegistryPublisher, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create registry client: %w", err)
	}

	return &RegistryPublisher{
		client: client,
		bucket: opts.Bucket,
		logger: log,
	}, nil
}

// ObjectKey returns the deterministic registry key for a file of a
// release: <library>/<version>/<file>.
func ObjectKey(rc domain.ReleaseContext, file string) string {
	return rc.Library + "/" + rc.Version.String() + "/" + filepath.Base(file)
}

// Publish uploads the archive and its provenance manifest. A single
// best-effort attempt; the supported recovery for a failure is
// re-running the whole pipeline.
func (p *RegistryPublisher) Publish(ctx context.Context, rc domain.ReleaseContext, art domain.Artifact) error {
	uploads := []struct {
		path        string
		contentType string
	}{
		{path: art.ArchivePath, contentType: "application/gzip"},
		{path: art.ManifestPath, contentType: "application/json"},
	}

	for _, up := range uploads {
		key := ObjectKey(rc, up.path)
		info, err := p.client.FPutObject(ctx, p.bucket, key, up.path, minio.PutObjectOptions{
			ContentType: up.contentType,
		})
		if err != nil {
			return fmt.Errorf("cannot upload %s to %s/%s: %w", up.path, p.bucket, key, err)
		}

		p.logger.Debug(ctx, "uploaded registry object", map[string]interface{}{
			"bucket": p.bucket,
			"key":    key,
			"size":   info.Size,
			"etag":   info.ETag,
		})
	}

	p.logger.Info(ctx, "published artifact to registry", map[string]interface{}{
		"bucket":  p.bucket,
		"library": rc.Library,
		"version": rc.Version.String(),
	})
	return nil
}

// Close releases the registry client. minio clients hold no persistent
// resources, so this is a no-op.
func (p *RegistryPublisher) Close() error {
	return nil
}
