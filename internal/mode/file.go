package mode

import (
	"encoding/json"
	"os"
	"path/filepath"

	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/logger"
)

// FileRepository keeps the mode record as a small JSON document. Saves write
// a temporary file next to the target and rename it over the old record.
type FileRepository struct {
	path   string
	logger logger.Logger
}

func NewFileRepository(path string, log logger.Logger) (*FileRepository, error) {
	if path == "" {
		return nil, errors.New().New(ErrInvalidCachePath)
	}

	return &FileRepository{
		path:   path,
		logger: log,
	}, nil
}

func (r *FileRepository) Path() string {
	return r.path
}

func (r *FileRepository) Load() (State, error) {
	errFactory := errors.New()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, errFactory.New(ErrCacheNotFound)
		}
		return State{}, errFactory.Wrap(ErrStorageAccess, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, errFactory.Wrap(ErrCacheCorrupt, err)
	}

	normalized, ok := normalize(state)
	if !ok {
		return State{}, errFactory.WithData(ErrCacheCorrupt, state)
	}

	r.logger.Debug().
		Str("path", r.path).
		Str("cpu_mode", string(normalized.CPU)).
		Str("gpu_mode", string(normalized.GPU)).
		Msg("Loaded mode cache")

	return normalized, nil
}

func (r *FileRepository) Save(state State) error {
	errFactory := errors.New()

	data, err := json.Marshal(state)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  dir,
			Error: err.Error(),
		})
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errFactory.Wrap(ErrStorageAccess, err)
	}
	if err := tmp.Chmod(defaultFilePerm); err != nil {
		tmp.Close()
		return errFactory.Wrap(ErrStorageAccess, err)
	}
	if err := tmp.Close(); err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}
	committed = true

	r.logger.Debug().Str("path", r.path).Msg("Saved mode cache")

	return nil
}

func (r *FileRepository) Close() error {
	return nil
}
