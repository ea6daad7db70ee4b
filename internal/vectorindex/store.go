package vectorindex

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"complaintrag/internal/domain"
	"complaintrag/internal/logging"
)

const (
	// Fixed-width UTC timestamp, so lexical order of version names is age order.
	versionLayout = "20060102T150405.000000000"
	currentFile   = "CURRENT"
	versionsDir   = "versions"
	indexFile     = "index.gob"
	documentsFile = "documents.gob"
	metadataFile  = "metadata.gob"
	manifestFile  = "manifest.json"
)

// Store persists bundles under a directory. Each save writes a fresh version
// directory and then atomically repoints CURRENT at it, so readers never see
// a partially written bundle.
//
//	<dir>/CURRENT
//	<dir>/versions/<version>/{index.gob,documents.gob,metadata.gob,manifest.json}
type Store struct {
	dir    string
	keep   int
	logger *slog.Logger
}

// NewStore returns a store rooted at dir that keeps the newest keep versions.
func NewStore(dir string, keep int, logger *slog.Logger) *Store {
	if keep < 1 {
		keep = 1
	}
	return &Store{dir: dir, keep: keep, logger: logging.OrDefault(logger)}
}

type flatBlob struct {
	Dimension int
	Vectors   [][]float32
}

// Save writes b as a new version and makes it current. It returns the version name.
func (s *Store) Save(b *Bundle) (string, error) {
	version := fmt.Sprintf("%s-%s", time.Now().UTC().Format(versionLayout), uuid.NewString()[:8])
	root := filepath.Join(s.dir, versionsDir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.MkdirTemp(root, ".tmp-")
	if err != nil {
		return "", err
	}
	cleanup := func() { _ = os.RemoveAll(tmp) }

	m := b.manifest
	m.Version = version
	blobs := []struct {
		name string
		v    any
	}{
		{indexFile, flatBlob{Dimension: b.index.Dimension(), Vectors: b.index.vectors}},
		{documentsFile, b.documents},
		{metadataFile, b.metadata},
	}
	for _, blob := range blobs {
		if err := writeGob(filepath.Join(tmp, blob.name), blob.v); err != nil {
			cleanup()
			return "", fmt.Errorf("write %s: %w", blob.name, err)
		}
	}
	if err := writeJSON(filepath.Join(tmp, manifestFile), m); err != nil {
		cleanup()
		return "", fmt.Errorf("write %s: %w", manifestFile, err)
	}
	published := filepath.Join(root, version)
	if err := os.Rename(tmp, published); err != nil {
		cleanup()
		return "", err
	}
	if err := writeFileAtomic(filepath.Join(s.dir, currentFile), []byte(version+"\n")); err != nil {
		_ = os.RemoveAll(published)
		return "", fmt.Errorf("publish %s: %w", currentFile, err)
	}
	b.manifest.Version = version
	s.logger.Info("index version published", slog.String("version", version), slog.Int("count", m.Count), slog.String("dir", s.dir))
	s.prune(version)
	return version, nil
}

// Current returns the name of the live version.
func (s *Store) Current() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, currentFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: no %s in %s", domain.ErrIndexNotFound, currentFile, s.dir)
		}
		return "", err
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", fmt.Errorf("%w: empty %s", domain.ErrIndexCorrupt, currentFile)
	}
	return v, nil
}

// Load reads the live version and verifies that all three stores agree.
func (s *Store) Load() (*Bundle, error) {
	version, err := s.Current()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(s.dir, versionsDir, version)

	var m Manifest
	if err := readJSON(filepath.Join(dir, manifestFile), &m); err != nil {
		return nil, corrupt(manifestFile, err)
	}
	var blob flatBlob
	if err := readGob(filepath.Join(dir, indexFile), &blob); err != nil {
		return nil, corrupt(indexFile, err)
	}
	var docs []string
	if err := readGob(filepath.Join(dir, documentsFile), &docs); err != nil {
		return nil, corrupt(documentsFile, err)
	}
	var meta []domain.ChunkMetadata
	if err := readGob(filepath.Join(dir, metadataFile), &meta); err != nil {
		return nil, corrupt(metadataFile, err)
	}
	idx, err := NewFlat(blob.Dimension)
	if err != nil {
		return nil, corrupt(indexFile, err)
	}
	if err := idx.Add(blob.Vectors); err != nil {
		return nil, corrupt(indexFile, err)
	}
	return assemble(m, idx, docs, meta)
}

func (s *Store) prune(current string) {
	root := filepath.Join(s.dir, versionsDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		s.logger.Warn("list index versions failed", slog.Any("error", err))
		return
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			versions = append(versions, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	kept := 0
	for _, v := range versions {
		if v == current || kept < s.keep-1 {
			if v != current {
				kept++
			}
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, v)); err != nil {
			s.logger.Warn("remove old index version failed", slog.String("version", v), slog.Any("error", err))
		}
	}
}

func corrupt(name string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s missing", domain.ErrIndexCorrupt, name)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrIndexCorrupt, name, err)
}

func writeGob(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
