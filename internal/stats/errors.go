package stats

import "codeberg.org/mutker/atkctl/internal/errors"

const ErrCollectFailed = errors.ErrorCode("stats_collect_failed")

func init() {
	errors.RegisterMessages(map[errors.ErrorCode]string{
		ErrCollectFailed: "Failed to collect system stats",
	})
}

func collectError(phase string, err error) error {
	return errors.New().WithData(ErrCollectFailed, struct {
		Phase string
		Error string
	}{
		Phase: phase,
		Error: err.Error(),
	})
}
