package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// Releaser runs the full release pipeline:
//
//	gate -> clean -> package -> publish -> sync tags
//
// Every step runs to completion before the next begins and any failure
// aborts the whole invocation. There is no rollback: packaging,
// publication and tag sync are append-only operations whose partial
// completion is manually recoverable. Re-running the pipeline from the
// start is the supported recovery path.
type Releaser struct {
	gate      *Gate
	vcs       domain.VersionControl
	packager  domain.Packager
	publisher domain.Publisher
	recorder  domain.Recorder
	logger    Logger
	now       func() time.Time
}

// NewReleaser creates a Releaser with the given collaborators.
// The recorder may be nil when release history is not configured.
func NewReleaser(
	gate *Gate,
	vcs domain.VersionControl,
	packager domain.Packager,
	publisher domain.Publisher,
	recorder domain.Recorder,
	log Logger,
) *Releaser {
	return &Releaser{
		gate:      gate,
		vcs:       vcs,
		packager:  packager,
		publisher: publisher,
		recorder:  recorder,
		logger:    log,
		now:       time.Now,
	}
}

// Release runs the pipeline for the given release context and returns
// the context unchanged on success.
func (r *Releaser) Release(ctx context.Context, rc domain.ReleaseContext) (domain.ReleaseContext, error) {
	if err := r.gate.Run(ctx, rc); err != nil {
		return rc, err
	}

	if err := r.packager.Clean(rc); err != nil {
		return rc, fmt.Errorf("cannot clean build output %s: %w", rc.BuildDir, err)
	}
	r.logger.Info(ctx, "build output cleaned", map[string]interface{}{
		"build_dir": rc.BuildDir,
	})

	art, err := r.packager.Pack(ctx, rc)
	if err != nil {
		return rc, fmt.Errorf("packaging failed: %w", err)
	}
	r.logger.Info(ctx, "artifact packaged", map[string]interface{}{
		"archive":  art.ArchivePath,
		"manifest": art.ManifestPath,
		"commit":   rc.Commit,
	})

	if err := r.publisher.Publish(ctx, rc, art); err != nil {
		return rc, fmt.Errorf("publication failed: %w", err)
	}
	r.logger.Info(ctx, "artifact published", map[string]interface{}{
		"library": rc.Library,
		"version": rc.Version.String(),
	})

	if err := r.syncTags(ctx, rc); err != nil {
		return rc, err
	}

	r.record(ctx, rc)

	r.logger.Info(ctx, "release complete", map[string]interface{}{
		"library": rc.Library,
		"version": rc.Version.String(),
		"tag":     rc.Tag,
		"commit":  rc.Commit,
	})
	return rc, nil
}

// syncTags pushes the release tag and then the current branch. The tag
// goes first: the gate already confirmed it matches HEAD, so even if
// the branch push fails the tag is shared. A failure here occurs only
// after publication, so the remedy is a manual push, not a republish.
func (r *Releaser) syncTags(ctx context.Context, rc domain.ReleaseContext) error {
	for _, ref := range []string{rc.Tag, rc.Branch} {
		if err := r.vcs.PushRef(ctx, rc.Remote, ref); err != nil {
			r.logger.Error(ctx, "failed to push ref", err, map[string]interface{}{
				"remote": rc.Remote,
				"ref":    ref,
			})
			return domain.Blocked(domain.ExitSyncFailed, fmt.Sprintf(
				"could not sync with remote %s: pushing %s failed; "+
					"%s is already published, push the tag and branch manually and do not republish",
				rc.Remote, ref, rc.Version.String(),
			))
		}
		r.logger.Debug(ctx, "pushed ref", map[string]interface{}{
			"remote": rc.Remote,
			"ref":    ref,
		})
	}
	return nil
}

// record appends the release to history. Best-effort: the release has
// already fully succeeded, so a recording failure is only logged.
func (r *Releaser) record(ctx context.Context, rc domain.ReleaseContext) {
	if r.recorder == nil {
		return
	}

	rec := domain.ReleaseRecord{
		Library:    rc.Library,
		Version:    rc.Version.String(),
		Tag:        rc.Tag,
		Commit:     rc.Commit,
		Branch:     rc.Branch,
		Status:     "released",
		ReleasedAt: r.now().UTC(),
	}
	if err := r.recorder.Record(ctx, rec); err != nil {
		r.logger.Warn(ctx, "failed to record release history", map[string]interface{}{
			"error":   err.Error(),
			"version": rec.Version,
		})
	}
}
