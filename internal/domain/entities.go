// Package domain defines the core business entities and interfaces for relgate.
package domain

import (
	"strconv"
	"time"
)

// TagPrefix is the fixed marker prepended to a version to form its tag.
const TagPrefix = "v"

// Version is the release version of the wrapped library: a fixed base
// (the upstream version being wrapped) plus a revision derived from the
// repository's commit count. Computed once per invocation, never mutated.
type Version struct {
	// Base is the upstream-compatibility prefix, e.g. "1.4.0".
	Base string

	// Revision is the number of commits reachable from HEAD.
	// Monotonically non-decreasing across history.
	Revision int
}

// String renders the full version, e.g. "1.4.0.42".
func (v Version) String() string {
	return v.Base + "." + strconv.Itoa(v.Revision)
}

// Tag returns the release tag expected to mark the commit being
// released, e.g. "v1.4.0.42".
func (v Version) Tag() string {
	return TagPrefix + v.String()
}

// Next returns the version the next commit would carry. It is only
// used to suggest a remediation target, never for the release itself.
func (v Version) Next() Version {
	return Version{Base: v.Base, Revision: v.Revision + 1}
}

// CommandResult is the outcome of running an external process.
// Stdout and Stderr are empty unless capture was requested.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ReleaseContext carries the orchestration-wide release parameters.
// It is built once before the first precondition check and threaded
// unchanged through every pipeline step; no step may depend on another
// step having modified it.
type ReleaseContext struct {
	// Library is the identifier the packaged artifact is named after.
	Library string

	// Version is the resolved release version.
	Version Version

	// Tag is Version.Tag(), materialized once for the checks.
	Tag string

	// Commit is the hash of HEAD, recorded as provenance.
	Commit string

	// Branch is the current branch, pushed during tag sync.
	// Empty when HEAD is detached.
	Branch string

	// Remote is the name of the shared remote, normally "origin".
	Remote string

	// BuildDir is the output directory cleared and repopulated by
	// the packaging step.
	BuildDir string
}

// Artifact locates the output of the packaging step. Names are derived
// deterministically from library and version so that the publish step
// needs no additional state to find them.
type Artifact struct {
	ArchivePath  string
	ManifestPath string
}

// Provenance is the metadata written next to a packaged archive,
// recording where the artifact came from.
type Provenance struct {
	Library       string    `json:"library"`
	Version       string    `json:"version"`
	Tag           string    `json:"tag"`
	Commit        string    `json:"commit"`
	Archive       string    `json:"archive"`
	ArchiveSHA256 string    `json:"archive_sha256"`
	BuiltAt       time.Time `json:"built_at"`
}

// ReleaseRecord is one row of release history.
type ReleaseRecord struct {
	Library    string
	Version    string
	Tag        string
	Commit     string
	Branch     string
	Status     string
	ReleasedAt time.Time
}

// Exit codes returned by the relgate CLI. The values are fixed so that
// wrapping automation can branch on them symbolically.
const (
	// ExitOK indicates the command completed successfully.
	ExitOK = 0

	// ExitEnvironment indicates the version could not even be
	// determined (not a repository, missing binary, bad config).
	ExitEnvironment = 2

	// ExitChangelogStale indicates the changelog has no entry for
	// the release tag.
	ExitChangelogStale = 10

	// ExitManifestStale indicates the package manifest does not
	// declare the release version.
	ExitManifestStale = 11

	// ExitDirtyWorktree indicates the working tree has uncommitted
	// changes.
	ExitDirtyWorktree = 12

	// ExitTagMissing indicates the release tag does not exist.
	ExitTagMissing = 13

	// ExitTagNotOnHead indicates the release tag exists but does
	// not point at HEAD.
	ExitTagNotOnHead = 14

	// ExitSyncFailed indicates the post-publication tag or branch
	// push failed. The artifact is already published at this point.
	ExitSyncFailed = 15
)
