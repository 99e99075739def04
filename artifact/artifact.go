// Package artifact bundles the files a job declares into a named zip
// with a manifest, filling the role of the upload step in the original
// Actions workflow.
package artifact

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// MissingPolicy controls what happens when a declared path is absent.
type MissingPolicy string

const (
	// MissingWarn logs absent paths and bundles the rest. It fails only
	// when no declared path exists at all. This mirrors the upload
	// action's default: scope-limited runs produce a subset of the nine
	// declared reports.
	MissingWarn MissingPolicy = "warn"
	// MissingError fails on the first absent path.
	MissingError MissingPolicy = "error"
)

// File describes one bundled file.
type File struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Manifest describes a published artifact.
type Manifest struct {
	Name      string    `json:"name"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Files     []File    `json:"files"`
}

// Publisher writes artifact bundles into a directory.
type Publisher struct {
	dir    string
	policy MissingPolicy
}

// NewPublisher returns a Publisher writing into dir. An empty policy
// defaults to MissingWarn.
func NewPublisher(dir string, policy MissingPolicy) *Publisher {
	if policy == "" {
		policy = MissingWarn
	}
	return &Publisher{dir: dir, policy: policy}
}

// ZipPath returns where Publish writes the bundle for an artifact name.
func (p *Publisher) ZipPath(name string) string {
	return filepath.Join(p.dir, name+".zip")
}

// ManifestPath returns where Publish writes the manifest for an artifact
// name.
func (p *Publisher) ManifestPath(name string) string {
	return filepath.Join(p.dir, name+".manifest.json")
}

// Publish bundles the declared paths, resolved against sourceDir, into
// ZipPath(name) and writes the manifest next to it.
func (p *Publisher) Publish(name, runID, sourceDir string, paths []string) (*Manifest, error) {
	var present []string
	for _, path := range paths {
		if _, err := os.Stat(filepath.Join(sourceDir, path)); err != nil {
			if p.policy == MissingError {
				return nil, fmt.Errorf("declared artifact path %s does not exist", path)
			}
			slog.Warn("declared artifact path does not exist, skipping", "path", path)
			continue
		}
		present = append(present, path)
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("no declared artifact path exists in %s", sourceDir)
	}

	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	manifest := &Manifest{
		Name:      name,
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
	}

	zipPath := p.ZipPath(name)
	f, err := os.Create(zipPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", zipPath, err)
	}
	zw := zip.NewWriter(f)
	for _, path := range present {
		file, err := addFile(zw, sourceDir, path)
		if err != nil {
			zw.Close()
			f.Close()
			return nil, err
		}
		manifest.Files = append(manifest.Files, file)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return nil, fmt.Errorf("finalize %s: %w", zipPath, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", zipPath, err)
	}

	if err := p.writeManifest(name, manifest); err != nil {
		return nil, err
	}

	slog.Info("artifact published",
		"artifact", name,
		"zip", zipPath,
		"files", len(manifest.Files))
	return manifest, nil
}

func addFile(zw *zip.Writer, sourceDir, path string) (File, error) {
	src, err := os.Open(filepath.Join(sourceDir, path))
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	w, err := zw.Create(filepath.ToSlash(path))
	if err != nil {
		return File{}, fmt.Errorf("add %s to bundle: %w", path, err)
	}
	h := sha256.New()
	size, err := io.Copy(w, io.TeeReader(src, h))
	if err != nil {
		return File{}, fmt.Errorf("bundle %s: %w", path, err)
	}
	return File{
		Name:   path,
		Size:   size,
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

func (p *Publisher) writeManifest(name string, manifest *Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	path := p.ManifestPath(name)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
