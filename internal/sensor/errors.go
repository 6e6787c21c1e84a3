package sensor

import "codeberg.org/mutker/atkctl/internal/errors"

const (
	ErrSourceUnavailable = errors.ErrorCode("sensor_source_unavailable")
	ErrQueryFailed       = errors.ErrorCode("sensor_query_failed")
)

func init() {
	errors.RegisterMessages(map[errors.ErrorCode]string{
		ErrSourceUnavailable: "Hardware monitor source unavailable",
		ErrQueryFailed:       "Hardware monitor query failed",
	})
}
