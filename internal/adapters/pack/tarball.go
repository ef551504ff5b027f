// Package pack builds the distributable archive and its provenance
// manifest for a release.
package pack

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// Packager implements domain.Packager. It archives the configured
// include paths of the project into a gzipped tarball and writes a
// provenance manifest next to it. Output names derive from the library
// identifier and version only, so the publish step can locate them
// without additional state.
type Packager struct {
	// Root is the project root the include paths are relative to.
	Root string

	// Include lists the files and directories to archive, relative
	// to Root.
	Include []string

	now func() time.Time
}

// NewPackager creates a Packager for the given project root.
func NewPackager(root string, include []string) *Packager {
	return &Packager{
		Root:    root,
		Include: include,
		now:     time.Now,
	}
}

// ArchiveName returns the deterministic archive file name for a release.
func ArchiveName(rc domain.ReleaseContext) string {
	return fmt.Sprintf("%s-%s.tar.gz", rc.Library, rc.Version.String())
}

// ManifestName returns the deterministic manifest file name for a release.
func ManifestName(rc domain.ReleaseContext) string {
	return fmt.Sprintf("%s-%s.manifest.json", rc.Library, rc.Version.String())
}

// Clean removes the build output directory. Idempotent: an absent
// directory is not an error.
func (p *Packager) Clean(rc domain.ReleaseContext) error {
	return os.RemoveAll(p.buildDir(rc))
}

// Pack writes the archive and the provenance manifest into the build
// directory.
func (p *Packager) Pack(ctx context.Context, rc domain.ReleaseContext) (domain.Artifact, error) {
	buildDir := p.buildDir(rc)
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return domain.Artifact{}, fmt.Errorf("cannot create build directory: %w", err)
	}

	archivePath := filepath.Join(buildDir, ArchiveName(rc))
	if err := p.writeArchive(ctx, rc, archivePath); err != nil {
		return domain.Artifact{}, err
	}

	sum, err := fileSHA256(archivePath)
	if err != nil {
		return domain.Artifact{}, err
	}

	manifestPath := filepath.Join(buildDir, ManifestName(rc))
	prov := domain.Provenance{
		Library:       rc.Library,
		Version:       rc.Version.String(),
		Tag:           rc.Tag,
		Commit:        rc.Commit,
		Archive:       ArchiveName(rc),
		ArchiveSHA256: sum,
		BuiltAt:       p.now().UTC(),
	}
	if err := writeManifest(manifestPath, prov); err != nil {
		return domain.Artifact{}, err
	}

	return domain.Artifact{
		ArchivePath:  archivePath,
		ManifestPath: manifestPath,
	}, nil
}

func (p *Packager) buildDir(rc domain.ReleaseContext) string {
	if filepath.IsAbs(rc.BuildDir) {
		return rc.BuildDir
	}
	return filepath.Join(p.Root, rc.BuildDir)
}

// writeArchive tars and gzips the include paths. Entries are stored
// with paths relative to the project root under a top-level
// "<library>-<version>/" prefix, the layout registries conventionally
// expect.
func (p *Packager) writeArchive(ctx context.Context, rc domain.ReleaseContext, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("cannot create archive: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	prefix := rc.Library + "-" + rc.Version.String()
	for _, include := range p.Include {
		if err := p.addPath(ctx, tw, prefix, include, rc.BuildDir); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("cannot finalize archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("cannot finalize compression: %w", err)
	}
	return f.Close()
}

// addPath adds one include entry (file or directory tree) to the
// archive, skipping the .git directory and the build output itself.
func (p *Packager) addPath(ctx context.Context, tw *tar.Writer, prefix, include, buildDir string) error {
	root := filepath.Join(p.Root, include)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(p.Root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if d.Name() == ".git" || rel == buildDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		return p.addFile(tw, path, prefix+"/"+filepath.ToSlash(rel))
	})
}

func (p *Packager) addFile(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("cannot write archive header for %s: %w", name, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("cannot archive %s: %w", name, err)
	}
	return nil
}

func writeManifest(path string, prov domain.Provenance) error {
	data, err := json.MarshalIndent(prov, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode provenance manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("cannot write provenance manifest: %w", err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("cannot hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
