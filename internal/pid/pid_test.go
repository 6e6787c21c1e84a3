package pid_test

import (
	"os"
	"os/exec"
	"strconv"
	"testing"

	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, pid.Write(dir))

	data, err := os.ReadFile(pid.Path(dir))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, pid.Remove(dir))
	_, err = os.Stat(pid.Path(dir))
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine
	require.NoError(t, pid.Remove(dir))
}

func TestWriteOwnPIDIsNotAConflict(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, pid.Write(dir))
	require.NoError(t, pid.Write(dir))
}

func TestWriteRefusesLiveProcess(t *testing.T) {
	if os.Getppid() <= 1 {
		t.Skip("no live parent process to point at")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(pid.Path(dir), []byte(strconv.Itoa(os.Getppid())+"\n"), 0o600))

	err := pid.Write(dir)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}

func TestWriteReplacesStaleFile(t *testing.T) {
	dir := t.TempDir()

	// A process that has exited leaves a stale PID behind
	cmd := exec.Command(os.Args[0], "-test.run=^$")
	require.NoError(t, cmd.Run())
	stale := cmd.Process.Pid
	require.NoError(t, os.WriteFile(pid.Path(dir), []byte(strconv.Itoa(stale)), 0o600))

	require.NoError(t, pid.Write(dir))

	data, err := os.ReadFile(pid.Path(dir))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}

func TestWriteReplacesGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(pid.Path(dir), []byte("not a pid"), 0o600))

	require.NoError(t, pid.Write(dir))
}
