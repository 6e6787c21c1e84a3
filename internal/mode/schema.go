package mode

import (
	"database/sql"

	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS mode_state (
	       id          INTEGER PRIMARY KEY CHECK (id = 1),
	       cpu_mode    TEXT,
	       gpu_mode    TEXT,
	       updated_at  TEXT NOT NULL
	   );`

	upsertStateSQL = `
    INSERT INTO mode_state (id, cpu_mode, gpu_mode, updated_at)
    VALUES (1, ?, ?, datetime('now'))
    ON CONFLICT(id) DO UPDATE SET
        cpu_mode = excluded.cpu_mode,
        gpu_mode = excluded.gpu_mode,
        updated_at = excluded.updated_at`

	selectStateSQL = `SELECT cpu_mode, gpu_mode FROM mode_state WHERE id = 1`
)

// initSchema creates the tables and records the schema version.
func initSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating mode cache database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			SQL   string
		}{
			Error: err.Error(),
			SQL:   createTablesSQL,
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().Int("version", SchemaVersion).Msg("Mode cache schema initialized")

	return nil
}

// schemaVersion returns the recorded version, or 0 for an empty database.
func schemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	var exists bool
	if err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name='schema_versions'
        )
    `).Scan(&exists); err != nil {
		return 0, errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err := db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	return version, nil
}

// ensureSchema creates the schema on an empty database. A database written by
// a newer build is refused rather than dropped.
func ensureSchema(db *sql.DB, log logger.Logger) error {
	version, err := schemaVersion(db)
	if err != nil {
		return err
	}

	log.Debug().Int("version", version).Bool("init_db", version == 0).Msg("Current mode cache schema version")

	switch {
	case version == 0:
		return initSchema(db, log)
	case version > SchemaVersion:
		return errors.New().WithData(ErrSchemaUnsupported, struct {
			Found     int
			Supported int
		}{
			Found:     version,
			Supported: SchemaVersion,
		})
	default:
		return nil
	}
}
