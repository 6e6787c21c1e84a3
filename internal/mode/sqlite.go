package mode

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository keeps the mode record as the single row of mode_state.
type SQLiteRepository struct {
	db     *sql.DB
	path   string
	logger logger.Logger
	mu     sync.Mutex
}

func NewSQLiteRepository(path string, log logger.Logger) (*SQLiteRepository, error) {
	errFactory := errors.New()

	if path == "" {
		return nil, errFactory.New(ErrInvalidCachePath)
	}

	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  path,
			Error: err.Error(),
		})
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ensureSchema(db, log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Info().
		Str("path", path).
		Int("schema_version", SchemaVersion).
		Msg("Mode cache repository initialized")

	return &SQLiteRepository{
		db:     db,
		path:   path,
		logger: log,
	}, nil
}

func (r *SQLiteRepository) Load() (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	errFactory := errors.New()

	var cpu, gpu sql.NullString
	err := r.db.QueryRow(selectStateSQL).Scan(&cpu, &gpu)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, errFactory.New(ErrCacheNotFound)
	}
	if err != nil {
		return State{}, errFactory.Wrap(ErrStorageAccess, err)
	}

	state := State{CPU: CPUMode(cpu.String), GPU: GPUMode(gpu.String)}
	normalized, ok := normalize(state)
	if !ok {
		return State{}, errFactory.WithData(ErrCacheCorrupt, state)
	}

	return normalized, nil
}

func (r *SQLiteRepository) Save(state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.Exec(upsertStateSQL, nullable(string(state.CPU)), nullable(string(state.GPU))); err != nil {
		return errors.New().Wrap(ErrStorageAccess, err)
	}

	r.logger.Debug().Str("path", r.path).Msg("Saved mode cache")

	return nil
}

func (r *SQLiteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to checkpoint WAL")
	}

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
