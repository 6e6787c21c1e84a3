package mode_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/logger"
	"codeberg.org/mutker/atkctl/internal/mode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mode_cache.json")
	repo := fileRepo(t, path)
	assert.Equal(t, path, repo.Path())

	_, err := repo.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, mode.ErrCacheNotFound))

	require.NoError(t, repo.Save(mode.State{CPU: mode.CPUTurbo}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cpu_mode":"Turbo","gpu_mode":null}`, string(data))

	require.NoError(t, repo.Save(mode.State{CPU: mode.CPUSilent, GPU: mode.GPUEco}))
	state, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, mode.State{CPU: mode.CPUSilent, GPU: mode.GPUEco}, state)

	// No temporary files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, repo.Close())
}

func TestFileRepositoryNormalizesNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mode_cache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cpu_mode":"turbo","gpu_mode":"STANDARD"}`), 0o644))

	state, err := fileRepo(t, path).Load()
	require.NoError(t, err)
	assert.Equal(t, mode.State{CPU: mode.CPUTurbo, GPU: mode.GPUStandard}, state)
}

func TestFileRepositoryCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mode_cache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cpu_mode":"Turbo","gpu_mode":"Hybrid"}`), 0o644))

	_, err := fileRepo(t, path).Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, mode.ErrCacheCorrupt))
}

func TestRepositoryRejectsEmptyPath(t *testing.T) {
	_, err := mode.NewFileRepository("", logger.Nop())
	assert.True(t, errors.HasCode(err, mode.ErrInvalidCachePath))

	_, err = mode.NewSQLiteRepository("", logger.Nop())
	assert.True(t, errors.HasCode(err, mode.ErrInvalidCachePath))
}

func TestSQLiteRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mode_cache.db")

	repo, err := mode.NewSQLiteRepository(path, logger.Nop())
	require.NoError(t, err)

	_, err = repo.Load()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, mode.ErrCacheNotFound))

	require.NoError(t, repo.Save(mode.State{CPU: mode.CPUTurbo}))
	require.NoError(t, repo.Save(mode.State{CPU: mode.CPUBalanced, GPU: mode.GPUStandard}))
	require.NoError(t, repo.Close())

	reopened, err := mode.NewSQLiteRepository(path, logger.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	state, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, mode.State{CPU: mode.CPUBalanced, GPU: mode.GPUStandard}, state)

	require.NoError(t, reopened.Save(mode.State{}))
	state, err = reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, mode.State{}, state)
}
