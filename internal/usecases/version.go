// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill
// the release gate and publication pipeline.
package usecases

import (
	"context"
	"fmt"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// Logger defines the logging interface required by the use cases.
// This abstracts the logger dependency to avoid coupling to a specific
// implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// VersionResolver derives the release version from the configured base
// plus the repository's commit count.
type VersionResolver struct {
	vcs    domain.VersionControl
	base   string
	logger Logger
}

// NewVersionResolver creates a VersionResolver for the given base version.
func NewVersionResolver(vcs domain.VersionControl, base string, log Logger) *VersionResolver {
	return &VersionResolver{
		vcs:    vcs,
		base:   base,
		logger: log,
	}
}

// Resolve computes the release version. The revision is the exact
// count of commits reachable from HEAD; if that count cannot be
// obtained no version exists and the whole invocation is fatal.
func (r *VersionResolver) Resolve(ctx context.Context) (domain.Version, error) {
	count, err := r.vcs.RevisionCount(ctx)
	if err != nil {
		return domain.Version{}, fmt.Errorf("cannot determine release version: %w", err)
	}

	v := domain.Version{Base: r.base, Revision: count}

	r.logger.Debug(ctx, "resolved release version", map[string]interface{}{
		"base":     r.base,
		"revision": count,
		"version":  v.String(),
		"tag":      v.Tag(),
	})

	return v, nil
}
