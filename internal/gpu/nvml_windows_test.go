//go:build windows

package gpu

import (
	"context"
	"testing"

	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNVMLReturnError(t *testing.T) {
	assert.Equal(t, "nvml: not supported", nvmlReturn(3).Error())
	assert.Equal(t, "nvml: return code 42", nvmlReturn(42).Error())
}

func TestDLLControllerLifecycle(t *testing.T) {
	ctrl := newController()

	_, err := ctrl.DeviceCount()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrNotInitialized))

	// Machines without an NVIDIA driver fail cleanly instead of panicking
	if err := ctrl.Initialize(); err != nil {
		assert.True(t, errors.HasCode(err, ErrInitFailed))
		return
	}
	defer func() { assert.NoError(t, ctrl.Shutdown()) }()

	count, err := ctrl.DeviceCount()
	require.NoError(t, err)
	if count == 0 {
		return
	}

	d, err := ctrl.Device(0)
	require.NoError(t, err)
	name, err := d.Name()
	require.NoError(t, err)
	assert.NotEmpty(t, name)
}

func TestReaderWithoutDriverReportsNothing(t *testing.T) {
	r := NewReader(logger.Nop())

	assert.NotPanics(t, func() {
		_ = r.ReadGPU(context.Background())
	})
}
