package errors

// Common error codes
const (
	// System errors
	ErrInternal    ErrorCode = "internal_error"
	ErrUnavailable ErrorCode = "service_unavailable"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"

	// Shutdown errors
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Process errors
	ErrAlreadyRunning ErrorCode = "already_running"

	// Application errors
	ErrInitApp     ErrorCode = "init_app_failed"
	ErrMainLoop    ErrorCode = "main_loop_failed"
	ErrApplyModes  ErrorCode = "apply_modes_failed"
	ErrPrintOutput ErrorCode = "print_output_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrUnavailable:     "Service unavailable",
	ErrInvalidConfig:   "Invalid configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read config file",
	ErrInvalidInterval: "Invalid interval value",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrInitApp:         "Failed to initialize application",
	ErrMainLoop:        "Error in main loop",
	ErrApplyModes:      "Failed to apply performance modes",
	ErrPrintOutput:     "Failed to print output",
	ErrShutdownFailed:  "Shutdown failed",
}

// RegisterMessages adds human readable messages for package specific codes.
// It is meant to be called from package init functions.
func RegisterMessages(messages map[ErrorCode]string) {
	for code, msg := range messages {
		errorMessages[code] = msg
	}
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
