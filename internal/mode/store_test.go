package mode_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"codeberg.org/mutker/atkctl/internal/atk"
	"codeberg.org/mutker/atkctl/internal/atk/atktest"
	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/logger"
	"codeberg.org/mutker/atkctl/internal/mode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo records every save.
type memoryRepo struct {
	mu      sync.Mutex
	state   *mode.State
	saves   []mode.State
	saveErr error
}

func (r *memoryRepo) Load() (mode.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return mode.State{}, errors.New().New(mode.ErrCacheNotFound)
	}
	return *r.state, nil
}

func (r *memoryRepo) Save(state mode.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.state = &state
	r.saves = append(r.saves, state)
	return nil
}

func (r *memoryRepo) Close() error { return nil }

func (r *memoryRepo) last() (mode.State, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saves) == 0 {
		return mode.State{}, 0
	}
	return r.saves[len(r.saves)-1], len(r.saves)
}

func newStore(t *testing.T, transport *atktest.Transport, repo mode.Repository) *mode.Store {
	t.Helper()
	client := atk.NewClient(transport, logger.Nop())
	return mode.NewStore(client, repo, logger.Nop())
}

func fileRepo(t *testing.T, path string) *mode.FileRepository {
	t.Helper()
	repo, err := mode.NewFileRepository(path, logger.Nop())
	require.NoError(t, err)
	return repo
}

func TestInitializeSeedsFromHardwareWithoutCache(t *testing.T) {
	transport := atktest.NewTransport().Set(atk.DeviceCPUMode, 3)
	store := newStore(t, transport, fileRepo(t, filepath.Join(t.TempDir(), "mode_cache.json")))

	require.NoError(t, store.Initialize())
	assert.Equal(t, mode.CPUPerformance, store.CPUMode())
	assert.Equal(t, 1, transport.Count(atk.MethodDSTS))
}

func TestInitializeTwice(t *testing.T) {
	store := newStore(t, atktest.NewTransport(), nil)

	require.NoError(t, store.Initialize())
	err := store.Initialize()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, mode.ErrAlreadyInitialized))
}

func TestTurboSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mode_cache.json")

	first := newStore(t, atktest.NewTransport().Set(atk.DeviceCPUMode, 3), fileRepo(t, path))
	require.NoError(t, first.Initialize())

	state, err := first.SetCPUMode("turbo")
	require.NoError(t, err)
	assert.Equal(t, mode.CPUTurbo, state.CPU)

	// The firmware keeps reporting Performance after the write
	transport := atktest.NewTransport().Set(atk.DeviceCPUMode, 3)
	second := newStore(t, transport, fileRepo(t, path))
	require.NoError(t, second.Initialize())

	assert.Equal(t, mode.CPUTurbo, second.CPUMode())
	assert.Equal(t, 0, transport.Count(atk.MethodDSTS))
}

func TestStaleReadbackIgnored(t *testing.T) {
	transport := atktest.NewTransport().Set(atk.DeviceCPUMode, 3)
	store := newStore(t, transport, nil)
	require.NoError(t, store.Initialize())

	_, err := store.SetCPUMode("Silent")
	require.NoError(t, err)

	reads := transport.Count(atk.MethodDSTS)
	for i := 0; i < 3; i++ {
		assert.Equal(t, mode.CPUSilent, store.CPUMode())
	}
	assert.Equal(t, reads, transport.Count(atk.MethodDSTS))
}

func TestSetCPUModeWritesCodes(t *testing.T) {
	tests := []struct {
		name string
		want mode.CPUMode
		code uint32
	}{
		{name: "silent", want: mode.CPUSilent, code: 2},
		{name: "Balanced", want: mode.CPUBalanced, code: 0},
		{name: " TURBO ", want: mode.CPUTurbo, code: 1},
		{name: "performance", want: mode.CPUPerformance, code: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := atktest.NewTransport()
			repo := &memoryRepo{}
			store := newStore(t, transport, repo)

			state, err := store.SetCPUMode(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, state.CPU)

			assert.Contains(t, transport.Sent(), atk.EncodeWrite(atk.DeviceCPUMode, tt.code))

			saved, n := repo.last()
			assert.Equal(t, 1, n)
			assert.Equal(t, tt.want, saved.CPU)
		})
	}
}

func TestSetCPUModeUnsupported(t *testing.T) {
	for _, name := range []string{"manual", "Manual", "ludicrous", ""} {
		t.Run(name, func(t *testing.T) {
			transport := atktest.NewTransport()
			store := newStore(t, transport, nil)

			_, err := store.SetCPUMode(name)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, mode.ErrUnsupported))
			assert.Empty(t, transport.Sent())
		})
	}
}

func TestSetCPUModeWriteRejected(t *testing.T) {
	transport := atktest.NewTransport().Set(atk.DeviceCPUMode, 0)
	repo := &memoryRepo{}
	store := newStore(t, transport, repo)
	require.NoError(t, store.Initialize())

	transport.SetFailWrites(true)
	_, err := store.SetCPUMode("turbo")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, mode.ErrWriteRejected))
	assert.True(t, errors.HasCode(err, atk.ErrTransferFailed))

	assert.Equal(t, mode.CPUBalanced, store.CPUMode())
	_, n := repo.last()
	assert.Zero(t, n)
}

func TestSetCPUModeDriverUnavailable(t *testing.T) {
	store := newStore(t, atktest.NewTransport().SetUnavailable(true), nil)

	_, err := store.SetCPUMode("silent")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, mode.ErrWriteRejected))
	assert.True(t, atk.IsUnavailable(err))
}

func TestPersistFailureDoesNotFailWrite(t *testing.T) {
	repo := &memoryRepo{saveErr: errors.New().New(mode.ErrStorageAccess)}
	store := newStore(t, atktest.NewTransport(), repo)

	state, err := store.SetCPUMode("balanced")
	require.NoError(t, err)
	assert.Equal(t, mode.CPUBalanced, state.CPU)
	assert.Equal(t, mode.CPUBalanced, store.CPUMode())
}

func TestSetGPUMode(t *testing.T) {
	transport := atktest.NewTransport()
	repo := &memoryRepo{}
	store := newStore(t, transport, repo)

	state, err := store.SetGPUMode("eco")
	require.NoError(t, err)
	assert.Equal(t, mode.GPUEco, state.GPU)
	assert.Contains(t, transport.Sent(), atk.EncodeWrite(atk.DeviceGPUEco, 1))

	state, err = store.SetGPUMode("Standard")
	require.NoError(t, err)
	assert.Equal(t, mode.GPUStandard, state.GPU)
	assert.Contains(t, transport.Sent(), atk.EncodeWrite(atk.DeviceGPUEco, 0))

	saved, n := repo.last()
	assert.Equal(t, 2, n)
	assert.Equal(t, mode.GPUStandard, saved.GPU)
}

func TestSetGPUModeRejected(t *testing.T) {
	transport := atktest.NewTransport()
	store := newStore(t, transport, nil)

	_, err := store.SetGPUMode("Ultimate")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, mode.ErrRequiresReboot))

	_, err = store.SetGPUMode("hybrid")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, mode.ErrUnsupported))

	assert.Empty(t, transport.Sent())
}

func TestGPUModeDerivation(t *testing.T) {
	tests := []struct {
		name      string
		mux, eco  int32
		failReads bool
		want      mode.GPUMode
	}{
		{name: "mux direct", mux: 0, eco: 0, want: mode.GPUUltimate},
		{name: "eco on", mux: 1, eco: 1, want: mode.GPUEco},
		{name: "eco off", mux: 1, eco: 0, want: mode.GPUStandard},
		{name: "mux unsupported", mux: -2, eco: 1, want: mode.GPUEco},
		{name: "unreadable", failReads: true, want: mode.GPUUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := atktest.NewTransport().
				Set(atk.DeviceGPUMux, tt.mux).
				Set(atk.DeviceGPUEco, tt.eco).
				SetFailReads(tt.failReads)
			store := newStore(t, transport, nil)

			assert.Equal(t, tt.want, store.GPUMode())
			reads := transport.Count(atk.MethodDSTS)
			assert.Equal(t, 2, reads)

			// Derived at most once
			assert.Equal(t, tt.want, store.GPUMode())
			assert.Equal(t, tt.want, store.State().GPU)
			assert.Equal(t, reads, transport.Count(atk.MethodDSTS))
		})
	}
}

func TestGPUModeWithMissingMuxRegister(t *testing.T) {
	// Only the eco flag exists; the mux register answers as unimplemented
	transport := atktest.NewTransport().Set(atk.DeviceGPUEco, 1)
	store := newStore(t, transport, nil)
	require.NoError(t, store.Initialize())

	assert.Equal(t, mode.GPUEco, store.GPUMode())
	// The CPU mode register is missing too and is not read as Balanced
	assert.Equal(t, mode.CPUUnknown, store.CPUMode())
}

func TestDerivedGPUModeNotPersisted(t *testing.T) {
	transport := atktest.NewTransport().Set(atk.DeviceGPUMux, 1).Set(atk.DeviceGPUEco, 1)
	repo := &memoryRepo{}
	store := newStore(t, transport, repo)

	assert.Equal(t, mode.GPUEco, store.GPUMode())

	state, err := store.SetCPUMode("silent")
	require.NoError(t, err)
	assert.Equal(t, mode.State{CPU: mode.CPUSilent, GPU: mode.GPUEco}, state)

	saved, _ := repo.last()
	assert.Equal(t, mode.State{CPU: mode.CPUSilent}, saved)
}

func TestCorruptCacheFallsBackToHardware(t *testing.T) {
	for name, content := range map[string]string{
		"invalid json": "{cpu_mode",
		"unknown name": `{"cpu_mode":"Ludicrous","gpu_mode":null}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mode_cache.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			transport := atktest.NewTransport().Set(atk.DeviceCPUMode, 2)
			store := newStore(t, transport, fileRepo(t, path))
			require.NoError(t, store.Initialize())

			assert.Equal(t, mode.CPUSilent, store.CPUMode())
			assert.Equal(t, 1, transport.Count(atk.MethodDSTS))
		})
	}
}

func TestUnreadableHardwareLeavesModeUnknown(t *testing.T) {
	store := newStore(t, atktest.NewTransport().SetUnavailable(true), nil)

	require.NoError(t, store.Initialize())
	assert.Equal(t, mode.CPUUnknown, store.CPUMode())
	assert.Equal(t, mode.State{}, store.State())
}

func TestConcurrentWritesSerialize(t *testing.T) {
	repo := &memoryRepo{}
	store := newStore(t, atktest.NewTransport(), repo)
	require.NoError(t, store.Initialize())

	names := []string{"silent", "balanced", "turbo", "performance"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := store.SetCPUMode(names[(i+j)%len(names)])
				assert.NoError(t, err)
				_ = store.State()
			}
		}(i)
	}
	wg.Wait()

	saved, n := repo.last()
	assert.Equal(t, 200, n)
	assert.Equal(t, saved.CPU, store.CPUMode())
}

func TestStateJSON(t *testing.T) {
	data, err := json.Marshal(mode.State{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cpu_mode":null,"gpu_mode":null}`, string(data))

	data, err = json.Marshal(mode.State{CPU: mode.CPUTurbo, GPU: mode.GPUEco})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cpu_mode":"Turbo","gpu_mode":"Eco"}`, string(data))
}
