package usecases

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// Gate runs the release preconditions in a fixed order, stopping at the
// first failure. The order is deliberate:
//
//  1. changelog mentions the tag        (exit 10)
//  2. manifest declares the version     (exit 11)
//  3. working tree is clean             (exit 12)
//  4. tag exists and points at HEAD     (exit 13 / 14)
//
// The document checks come before the clean-tree check so that an
// operator who still has to edit the changelog or manifest is not
// blocked by the very edit they are being asked to make. The tag check
// runs last: it is the final confirmation that human intent matches
// machine state before anything irreversible happens.
type Gate struct {
	vcs           domain.VersionControl
	changelogPath string
	manifestPath  string
	logger        Logger
}

// NewGate creates a Gate reading the changelog and manifest from the
// given paths.
func NewGate(vcs domain.VersionControl, changelogPath, manifestPath string, log Logger) *Gate {
	return &Gate{
		vcs:           vcs,
		changelogPath: changelogPath,
		manifestPath:  manifestPath,
		logger:        log,
	}
}

// Run evaluates every precondition against the release context,
// returning the first failure as a *domain.BlockedError. Later checks
// are never evaluated once one has failed.
func (g *Gate) Run(ctx context.Context, rc domain.ReleaseContext) error {
	if err := g.checkChangelog(ctx, rc); err != nil {
		return err
	}
	if err := g.checkManifest(ctx, rc); err != nil {
		return err
	}
	if err := g.checkWorktreeClean(ctx, rc); err != nil {
		return err
	}
	if err := g.checkTagOnHead(ctx, rc); err != nil {
		return err
	}

	g.logger.Info(ctx, "all release preconditions hold", map[string]interface{}{
		"version": rc.Version.String(),
		"tag":     rc.Tag,
	})
	return nil
}

// checkChangelog fails unless the changelog document contains the
// release tag string.
func (g *Gate) checkChangelog(ctx context.Context, rc domain.ReleaseContext) error {
	data, err := os.ReadFile(g.changelogPath)
	if err != nil {
		return fmt.Errorf("cannot read changelog %s: %w", g.changelogPath, err)
	}

	if !strings.Contains(string(data), rc.Tag) {
		return domain.Blocked(domain.ExitChangelogStale, fmt.Sprintf(
			"%s has no entry for %s; add one for %s, or for %s if you intend to release a new commit",
			g.changelogPath, rc.Tag, rc.Tag, rc.Version.Next().Tag(),
		))
	}

	g.logger.Debug(ctx, "changelog mentions release tag", map[string]interface{}{
		"path": g.changelogPath,
		"tag":  rc.Tag,
	})
	return nil
}

// checkManifest fails unless the package manifest contains the bare
// version string. The manifest format does not use the tag prefix.
func (g *Gate) checkManifest(ctx context.Context, rc domain.ReleaseContext) error {
	data, err := os.ReadFile(g.manifestPath)
	if err != nil {
		return fmt.Errorf("cannot read manifest %s: %w", g.manifestPath, err)
	}

	version := rc.Version.String()
	if !strings.Contains(string(data), version) {
		return domain.Blocked(domain.ExitManifestStale, fmt.Sprintf(
			"%s does not declare version %s; set it to %s, or to %s if you intend to release a new commit",
			g.manifestPath, version, version, rc.Version.Next().String(),
		))
	}

	g.logger.Debug(ctx, "manifest declares release version", map[string]interface{}{
		"path":    g.manifestPath,
		"version": version,
	})
	return nil
}

// checkWorktreeClean fails if the status query produces any output.
// The raw status listing is carried in the error's Detail so the
// operator sees exactly what is dirty.
func (g *Gate) checkWorktreeClean(ctx context.Context, rc domain.ReleaseContext) error {
	out, err := g.vcs.Status(ctx)
	if err != nil {
		return fmt.Errorf("cannot determine working tree status: %w", err)
	}

	if strings.TrimSpace(out) != "" {
		return &domain.BlockedError{
			Code: domain.ExitDirtyWorktree,
			Message: fmt.Sprintf(
				"working tree is not clean; commit or stash the changes below before releasing %s",
				rc.Tag,
			),
			Detail: out,
		}
	}

	g.logger.Debug(ctx, "working tree is clean", nil)
	return nil
}

// checkTagOnHead fails if the release tag is absent from history, or
// present but not pointing at the commit being released.
func (g *Gate) checkTagOnHead(ctx context.Context, rc domain.ReleaseContext) error {
	exists, err := g.vcs.TagExists(ctx, rc.Tag)
	if err != nil {
		return fmt.Errorf("cannot look up tag %s: %w", rc.Tag, err)
	}

	if !exists {
		return domain.Blocked(domain.ExitTagMissing, fmt.Sprintf(
			"tag %s does not exist; create it with: git tag %s",
			rc.Tag, rc.Tag,
		))
	}

	described, err := g.vcs.DescribeExactHead(ctx)
	if err != nil {
		return fmt.Errorf("cannot describe HEAD: %w", err)
	}

	if described != rc.Tag {
		return domain.Blocked(domain.ExitTagNotOnHead, fmt.Sprintf(
			"tag %s exists but does not point at HEAD (HEAD describes as %q); "+
				"move the tag to HEAD or commit and tag %s",
			rc.Tag, described, rc.Version.Next().Tag(),
		))
	}

	g.logger.Debug(ctx, "release tag points at HEAD", map[string]interface{}{
		"tag": rc.Tag,
	})
	return nil
}
