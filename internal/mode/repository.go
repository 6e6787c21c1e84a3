package mode

import "os"

const (
	defaultDirPerm  os.FileMode = 0o755
	defaultFilePerm os.FileMode = 0o644
)

// Repository persists the last successfully applied State. Load returns
// ErrCacheNotFound when nothing has been saved and ErrCacheCorrupt when the
// stored record cannot be interpreted.
type Repository interface {
	Load() (State, error)
	Save(state State) error
	Close() error
}

// normalize canonicalizes stored names and rejects ones this build does not
// know. Empty names are unknown modes and pass through.
func normalize(state State) (State, bool) {
	var out State

	if state.CPU.Known() {
		m, ok := ParseCPUMode(string(state.CPU))
		if !ok {
			return State{}, false
		}
		out.CPU = m
	}

	if state.GPU.Known() {
		m, ok := ParseGPUMode(string(state.GPU))
		if !ok {
			return State{}, false
		}
		out.GPU = m
	}

	return out, true
}
