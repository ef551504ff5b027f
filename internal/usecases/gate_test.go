package usecases

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// gateFixture writes a changelog and manifest into a temp dir and
// returns a Gate reading them plus the context under test.
func gateFixture(t *testing.T, changelog, manifest string, vcs *mockVCS) (*Gate, domain.ReleaseContext) {
	t.Helper()

	dir := t.TempDir()
	changelogPath := filepath.Join(dir, "CHANGELOG.md")
	manifestPath := filepath.Join(dir, "package.json")
	require.NoError(t, os.WriteFile(changelogPath, []byte(changelog), 0o644))
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0o644))

	gate := NewGate(vcs, changelogPath, manifestPath, &mockLogger{})

	v := domain.Version{Base: "1.4.0", Revision: 42}
	rc := domain.ReleaseContext{
		Library: "scroll",
		Version: v,
		Tag:     v.Tag(),
		Branch:  "main",
		Remote:  "origin",
	}
	return gate, rc
}

func TestGate_Run_AllChecksPass(t *testing.T) {
	vcs := &mockVCS{
		status:    "",
		tagExists: true,
		described: "v1.4.0.42",
	}
	gate, rc := gateFixture(t,
		"## v1.4.0.42\n- wrapped upstream 1.4.0\n",
		`{"name": "scroll", "version": "1.4.0.42"}`,
		vcs,
	)

	err := gate.Run(context.Background(), rc)

	require.NoError(t, err)
	assert.Equal(t, []string{"status", "tag-exists v1.4.0.42", "describe"}, vcs.calls)
}

func TestGate_Run_ChangelogStale(t *testing.T) {
	vcs := &mockVCS{tagExists: true, described: "v1.4.0.42"}
	gate, rc := gateFixture(t,
		"## v1.4.0.41\n- previous release\n",
		`{"version": "1.4.0.42"}`,
		vcs,
	)

	err := gate.Run(context.Background(), rc)

	var blocked *domain.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, domain.ExitChangelogStale, blocked.Code)
	assert.Contains(t, blocked.Message, "v1.4.0.42")
	assert.Contains(t, blocked.Message, "v1.4.0.43")
	// Short-circuit: the failing document check must never touch git state.
	assert.Empty(t, vcs.calls)
}

func TestGate_Run_ManifestStale(t *testing.T) {
	vcs := &mockVCS{tagExists: true, described: "v1.4.0.42"}
	gate, rc := gateFixture(t,
		"## v1.4.0.42\n",
		`{"version": "1.4.0.41"}`,
		vcs,
	)

	err := gate.Run(context.Background(), rc)

	var blocked *domain.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, domain.ExitManifestStale, blocked.Code)
	assert.Contains(t, blocked.Message, "1.4.0.42")
	assert.Contains(t, blocked.Message, "1.4.0.43")
	// Checks 3 and 4 must not run once check 2 has failed.
	assert.Empty(t, vcs.calls)
}

func TestGate_Run_DirtyWorktree(t *testing.T) {
	statusOut := " M src/scroll.js\n?? notes.txt\n"
	vcs := &mockVCS{status: statusOut, tagExists: true, described: "v1.4.0.42"}
	gate, rc := gateFixture(t,
		"## v1.4.0.42\n",
		`{"version": "1.4.0.42"}`,
		vcs,
	)

	err := gate.Run(context.Background(), rc)

	var blocked *domain.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, domain.ExitDirtyWorktree, blocked.Code)
	assert.Equal(t, statusOut, blocked.Detail)
	// The tag checks must not run against a dirty tree.
	assert.Equal(t, []string{"status"}, vcs.calls)
}

func TestGate_Run_TagMissing(t *testing.T) {
	vcs := &mockVCS{tagExists: false}
	gate, rc := gateFixture(t,
		"## v1.4.0.42\n",
		`{"version": "1.4.0.42"}`,
		vcs,
	)

	err := gate.Run(context.Background(), rc)

	var blocked *domain.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, domain.ExitTagMissing, blocked.Code)
	assert.Contains(t, blocked.Message, "git tag v1.4.0.42")
	// Describe is pointless when the tag does not exist at all.
	assert.Equal(t, []string{"status", "tag-exists v1.4.0.42"}, vcs.calls)
}

func TestGate_Run_TagNotOnHead(t *testing.T) {
	tests := []struct {
		name      string
		described string
	}{
		{name: "tag on an older commit", described: "v1.4.0.40"},
		{name: "no exact tag at HEAD", described: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vcs := &mockVCS{tagExists: true, described: tt.described}
			gate, rc := gateFixture(t,
				"## v1.4.0.42\n",
				`{"version": "1.4.0.42"}`,
				vcs,
			)

			err := gate.Run(context.Background(), rc)

			var blocked *domain.BlockedError
			require.ErrorAs(t, err, &blocked)
			assert.Equal(t, domain.ExitTagNotOnHead, blocked.Code)
			assert.Contains(t, blocked.Message, "v1.4.0.42")
			assert.Contains(t, blocked.Message, "v1.4.0.43")
		})
	}
}

func TestGate_Run_MissingChangelogIsEnvironmentError(t *testing.T) {
	vcs := &mockVCS{}
	gate := NewGate(vcs, "/nonexistent/CHANGELOG.md", "/nonexistent/package.json", &mockLogger{})

	v := domain.Version{Base: "1.4.0", Revision: 42}
	err := gate.Run(context.Background(), domain.ReleaseContext{Version: v, Tag: v.Tag()})

	require.Error(t, err)
	var blocked *domain.BlockedError
	assert.False(t, errors.As(err, &blocked))
	assert.Equal(t, domain.ExitEnvironment, domain.ExitCodeFor(err))
}

func TestGate_Run_StatusErrorIsEnvironmentError(t *testing.T) {
	vcs := &mockVCS{statusErr: errors.New("git binary not found")}
	gate, rc := gateFixture(t,
		"## v1.4.0.42\n",
		`{"version": "1.4.0.42"}`,
		vcs,
	)

	err := gate.Run(context.Background(), rc)

	require.Error(t, err)
	assert.Equal(t, domain.ExitEnvironment, domain.ExitCodeFor(err))
}
