// Package domain defines the core business entities and interfaces for relgate.
// This package contains no external dependencies and represents the innermost
// layer of the CLEAN architecture.
package domain

import "context"

// Runner executes an external command, blocking until it exits.
// The command inherits the caller's working directory and environment.
// A non-zero exit status is reported in the CommandResult, not as an
// error: callers always inspect ExitCode explicitly. The returned error
// is reserved for failures to run the command at all (missing binary).
// There is no timeout; version-control operations are assumed local and
// fast, and the operator can interrupt the whole process externally.
type Runner interface {
	Run(ctx context.Context, argv []string, captureStdout, captureStderr bool) (CommandResult, error)
}

// VersionControl exposes the repository queries and mutations the
// release pipeline needs. All calls block until the underlying
// operation completes.
type VersionControl interface {
	// RevisionCount returns the exact number of commits reachable
	// from HEAD. Returns an error wrapping ErrNotARepository when
	// the count cannot be computed.
	RevisionCount(ctx context.Context) (int, error)

	// HeadCommit returns the full hash of HEAD.
	HeadCommit(ctx context.Context) (string, error)

	// CurrentBranch returns the short branch name of HEAD, or an
	// error wrapping ErrDetachedHead when HEAD is not on a branch.
	CurrentBranch(ctx context.Context) (string, error)

	// Status returns the porcelain status of the working tree.
	// Empty output means the tree is clean.
	Status(ctx context.Context) (string, error)

	// TagExists reports whether the named tag exists anywhere in
	// the repository.
	TagExists(ctx context.Context, tag string) (bool, error)

	// DescribeExactHead returns the tag pointing exactly at HEAD,
	// or the empty string if HEAD carries no exact tag.
	DescribeExactHead(ctx context.Context) (string, error)

	// PushRef pushes a tag or branch to the named remote.
	PushRef(ctx context.Context, remote, ref string) error
}

// Packager produces the distributable archive and its provenance
// manifest for a release, and owns the build output directory.
type Packager interface {
	// Clean removes any previous build output. Idempotent: absent
	// output is not an error.
	Clean(rc ReleaseContext) error

	// Pack writes the archive and manifest into the build directory
	// under names derived from the library identifier and version.
	Pack(ctx context.Context, rc ReleaseContext) (Artifact, error)
}

// Publisher uploads a packaged artifact to the package registry.
// Idempotency of duplicate-version publishes is the registry's
// responsibility; relgate makes a single best-effort attempt.
type Publisher interface {
	Publish(ctx context.Context, rc ReleaseContext, art Artifact) error
	Close() error
}

// Recorder appends a release to the release history store. Recording
// is best-effort: a Record failure never fails the release.
type Recorder interface {
	Record(ctx context.Context, rec ReleaseRecord) error
	Close() error
}
