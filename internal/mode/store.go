package mode

import (
	"sync"

	"codeberg.org/mutker/atkctl/internal/atk"
	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/logger"
)

// Registers is the driver access the store needs. *atk.Client implements it.
type Registers interface {
	Read(id atk.DeviceID) (int32, error)
	Write(id atk.DeviceID, value uint32) error
}

// Store is the authoritative record of the current performance modes.
//
// The firmware does not echo a newly written CPU mode back through a read, so
// after startup the store never trusts the hardware for the CPU mode: it is
// seeded once from the repository (or one register read when there is no
// usable record) and changed only by successful writes.
type Store struct {
	mu     sync.Mutex
	regs   Registers
	repo   Repository
	logger logger.Logger

	state       State
	initialized bool

	// GPU mode derived from the eco and mux flags. Kept apart from state so
	// it is never persisted.
	derivedGPU   GPUMode
	gpuAttempted bool
}

// NewStore creates a store. repo may be nil, in which case nothing is
// persisted.
func NewStore(regs Registers, repo Repository, log logger.Logger) *Store {
	return &Store{
		regs:   regs,
		repo:   repo,
		logger: log,
	}
}

// Initialize seeds the store. It must be called exactly once.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return errors.New().New(ErrAlreadyInitialized)
	}
	s.initialized = true

	if s.repo != nil {
		state, err := s.repo.Load()
		if err == nil {
			s.state = state
			s.logger.Info().
				Str("cpu_mode", string(state.CPU)).
				Str("gpu_mode", string(state.GPU)).
				Msg("Restored modes from cache")
			return nil
		}

		if errors.HasCode(err, ErrCacheNotFound) {
			s.logger.Debug().Msg("No mode cache, reading CPU mode from hardware")
		} else {
			s.logger.Warn().Err(err).Msg("Ignoring unusable mode cache")
		}
	}

	s.state = State{CPU: s.readCPUMode()}

	return nil
}

// readCPUMode reads the CPU mode register. The value is only trustworthy
// before the first write of this boot.
func (s *Store) readCPUMode() CPUMode {
	value, err := s.regs.Read(atk.DeviceCPUMode)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Failed to read CPU mode")
		return CPUUnknown
	}

	m := CPUModeFromRegister(value)
	if !m.Known() {
		s.logger.Debug().Int32("value", value).Msg("Unrecognized CPU mode register value")
	}

	return m
}

// CPUMode returns the cached CPU mode without touching the hardware.
func (s *Store) CPUMode() CPUMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.CPU
}

// GPUMode returns the cached GPU mode. When none is known it is derived from
// the eco and mux flags, at most once per process.
func (s *Store) GPUMode() GPUMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gpuModeLocked()
}

// State returns both modes.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	return State{CPU: s.state.CPU, GPU: s.gpuModeLocked()}
}

func (s *Store) gpuModeLocked() GPUMode {
	if s.state.GPU.Known() {
		return s.state.GPU
	}

	if !s.gpuAttempted {
		s.gpuAttempted = true
		s.derivedGPU = s.deriveGPUMode()
	}

	return s.derivedGPU
}

func (s *Store) deriveGPUMode() GPUMode {
	mux, muxErr := s.regs.Read(atk.DeviceGPUMux)
	eco, ecoErr := s.regs.Read(atk.DeviceGPUEco)

	var m GPUMode
	switch {
	case muxErr != nil && ecoErr != nil:
		m = GPUUnknown
	case muxErr == nil && mux == 0:
		// dGPU wired directly to the panel
		m = GPUUltimate
	case ecoErr == nil && eco == 1:
		m = GPUEco
	default:
		m = GPUStandard
	}

	s.logger.Debug().
		Int32("mux", mux).
		Int32("eco", eco).
		Str("gpu_mode", string(m)).
		Msg("Derived GPU mode from flags")

	return m
}

// SetCPUMode writes a CPU mode. Manual and unknown names are rejected before
// any transfer.
func (s *Store) SetCPUMode(name string) (State, error) {
	errFactory := errors.New()

	m, ok := ParseCPUMode(name)
	if !ok || !m.Writable() {
		return State{}, errFactory.WithData(ErrUnsupported, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.regs.Write(atk.DeviceCPUMode, cpuWriteCode[m]); err != nil {
		s.logger.Error().Err(err).Str("cpu_mode", string(m)).Msg("CPU mode write failed")
		return State{}, errFactory.Wrap(ErrWriteRejected, err)
	}

	s.state.CPU = m
	s.persistLocked()

	s.logger.Info().Str("cpu_mode", string(m)).Msg("CPU mode changed")

	return s.stateLocked(), nil
}

// SetGPUMode writes a GPU mode. Ultimate needs a MUX switch and reboot and is
// reported as ErrRequiresReboot.
func (s *Store) SetGPUMode(name string) (State, error) {
	errFactory := errors.New()

	m, ok := ParseGPUMode(name)
	if !ok {
		return State{}, errFactory.WithData(ErrUnsupported, name)
	}
	if m == GPUUltimate {
		return State{}, errFactory.New(ErrRequiresReboot)
	}

	var eco uint32
	if m == GPUEco {
		eco = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.regs.Write(atk.DeviceGPUEco, eco); err != nil {
		s.logger.Error().Err(err).Str("gpu_mode", string(m)).Msg("GPU mode write failed")
		return State{}, errFactory.Wrap(ErrWriteRejected, err)
	}

	s.state.GPU = m
	s.persistLocked()

	s.logger.Info().Str("gpu_mode", string(m)).Msg("GPU mode changed")

	return s.stateLocked(), nil
}

// persistLocked saves the state. The hardware already accepted the write, so
// a failure here is only logged.
func (s *Store) persistLocked() {
	if s.repo == nil {
		return
	}

	if err := s.repo.Save(s.state); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist mode cache")
	}
}

// Close releases the repository.
func (s *Store) Close() error {
	if s.repo == nil {
		return nil
	}

	return s.repo.Close()
}
