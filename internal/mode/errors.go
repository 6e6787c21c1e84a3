package mode

import "codeberg.org/mutker/atkctl/internal/errors"

const (
	// Mode errors
	ErrUnsupported    = errors.ErrorCode("mode_unsupported")
	ErrWriteRejected  = errors.ErrorCode("mode_write_rejected")
	ErrRequiresReboot = errors.ErrorCode("mode_requires_reboot")

	// Lifecycle errors
	ErrAlreadyInitialized = errors.ErrorCode("mode_already_initialized")

	// Cache errors
	ErrCacheNotFound     = errors.ErrorCode("mode_cache_not_found")
	ErrCacheCorrupt      = errors.ErrorCode("mode_cache_corrupt")
	ErrInvalidCachePath  = errors.ErrorCode("mode_cache_invalid_path")
	ErrStorageInit       = errors.ErrorCode("mode_cache_storage_init_failed")
	ErrStorageAccess     = errors.ErrorCode("mode_cache_storage_access_failed")
	ErrStorageClose      = errors.ErrorCode("mode_cache_storage_close_failed")
	ErrSchemaInitFailed  = errors.ErrorCode("mode_cache_schema_init_failed")
	ErrSchemaUnsupported = errors.ErrorCode("mode_cache_schema_unsupported")
)

func init() {
	errors.RegisterMessages(map[errors.ErrorCode]string{
		ErrUnsupported:        "Unsupported mode",
		ErrWriteRejected:      "Mode write rejected by driver",
		ErrRequiresReboot:     "Mode requires a MUX switch and reboot",
		ErrAlreadyInitialized: "Mode store already initialized",
		ErrCacheNotFound:      "Mode cache not found",
		ErrCacheCorrupt:       "Mode cache is corrupt",
		ErrInvalidCachePath:   "Invalid mode cache path",
		ErrStorageInit:        "Failed to initialize mode cache storage",
		ErrStorageAccess:      "Failed to access mode cache storage",
		ErrStorageClose:       "Failed to close mode cache storage",
		ErrSchemaInitFailed:   "Failed to initialize mode cache schema",
		ErrSchemaUnsupported:  "Unsupported mode cache schema version",
	})
}
