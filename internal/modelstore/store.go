// internal/modelstore/store.go
package modelstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/ml"
	"internmatch-workers/internal/models"
)

const (
	weightsFile  = "model.json"
	metadataFile = "metadata.json"
	backupDir    = "backups"
)

// Store persists model artifacts on disk. Each model owns a directory under
// the root holding the weights file, a metadata sidecar and its backups:
//
//	<root>/<name>/model.json
//	<root>/<name>/metadata.json
//	<root>/<name>/backups/<timestamp>/model.json
type Store struct {
	root string
	log  logger.Logger
}

func New(root string, log logger.Logger) *Store {
	return &Store{root: root, log: log}
}

// Save writes the weights and metadata sidecar, bumping the version when an
// earlier artifact exists. The superseded artifact is backed up first, never
// silently discarded.
func (s *Store) Save(n *ml.Network) (models.ModelMetadata, error) {
	meta := models.ModelMetadata{
		Name:        n.Name,
		Version:     1,
		SavedAt:     time.Now().UTC(),
		InputShape:  n.InputSize,
		OutputShape: n.OutputSize(),
		ParamCount:  n.ParamCount(),
		LayerCount:  len(n.Layers),
	}
	if prev, err := s.metadata(n.Name); err == nil {
		meta.Version = prev.Version + 1
		if _, err := s.Backup(n.Name); err != nil && !cerrors.IsNotFound(err) {
			return models.ModelMetadata{}, err
		}
	}

	dir := filepath.Join(s.root, n.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.ModelMetadata{}, cerrors.NewModelPersistFailedError(n.Name, err)
	}
	if err := writeJSON(filepath.Join(dir, weightsFile), n); err != nil {
		return models.ModelMetadata{}, cerrors.NewModelPersistFailedError(n.Name, err)
	}
	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return models.ModelMetadata{}, cerrors.NewModelPersistFailedError(n.Name, err)
	}

	s.log.Info("Model artifact saved", map[string]interface{}{
		"model":      n.Name,
		"version":    meta.Version,
		"paramCount": meta.ParamCount,
	})
	return meta, nil
}

// Load reads the named artifact. A missing artifact is a not-found error.
func (s *Store) Load(name string) (*ml.Network, error) {
	path := filepath.Join(s.root, name, weightsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cerrors.NewModelNotFoundError(name)
		}
		return nil, cerrors.NewModelPersistFailedError(name, err)
	}

	var n ml.Network
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, cerrors.NewModelPersistFailedError(name, err)
	}
	return &n, nil
}

// List enumerates every model that has a metadata sidecar, sorted by name.
func (s *Store) List() ([]models.ModelMetadata, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []models.ModelMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.metadata(entry.Name())
		if err != nil {
			continue
		}
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Backup copies the live artifact into a timestamped backup directory and
// returns the backup name.
func (s *Store) Backup(name string) (string, error) {
	live := filepath.Join(s.root, name)
	if _, err := os.Stat(filepath.Join(live, weightsFile)); err != nil {
		if os.IsNotExist(err) {
			return "", cerrors.NewModelNotFoundError(name)
		}
		return "", cerrors.NewModelPersistFailedError(name, err)
	}

	stamp := time.Now().UTC().Format("20060102T150405")
	dest := filepath.Join(live, backupDir, stamp)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", cerrors.NewModelPersistFailedError(name, err)
	}
	for _, file := range []string{weightsFile, metadataFile} {
		if err := copyFile(filepath.Join(live, file), filepath.Join(dest, file)); err != nil {
			return "", cerrors.NewModelPersistFailedError(name, err)
		}
	}

	s.log.Info("Model artifact backed up", map[string]interface{}{
		"model":  name,
		"backup": stamp,
	})
	return stamp, nil
}

// Restore replaces the live artifact with the named backup. The live
// artifact is always backed up first so a bad restore can itself be undone.
func (s *Store) Restore(name, backup string) (*ml.Network, error) {
	src := filepath.Join(s.root, name, backupDir, backup)
	if _, err := os.Stat(filepath.Join(src, weightsFile)); err != nil {
		if os.IsNotExist(err) {
			return nil, cerrors.NewModelNotFoundError(fmt.Sprintf("%s/%s", name, backup))
		}
		return nil, cerrors.NewModelPersistFailedError(name, err)
	}

	if _, err := s.Backup(name); err != nil {
		return nil, err
	}

	live := filepath.Join(s.root, name)
	for _, file := range []string{weightsFile, metadataFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(live, file)); err != nil {
			return nil, cerrors.NewModelPersistFailedError(name, err)
		}
	}

	s.log.Info("Model artifact restored", map[string]interface{}{
		"model":  name,
		"backup": backup,
	})
	return s.Load(name)
}

// Backups lists the available backup names for a model, newest last.
func (s *Store) Backups(name string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, name, backupDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, entry.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) metadata(name string) (models.ModelMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.root, name, metadataFile))
	if err != nil {
		return models.ModelMetadata{}, err
	}
	var meta models.ModelMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return models.ModelMetadata{}, err
	}
	return meta, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
