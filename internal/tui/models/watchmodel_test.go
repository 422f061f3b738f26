package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/allbin/go-serialwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func device(port string) serialwatch.DeviceInfo {
	return serialwatch.DeviceInfo{PortName: port, Config: serialwatch.DefaultConfig()}
}

func TestWatchModelSetDevices(t *testing.T) {
	m := NewWatchModel("netlink")
	defer m.Cancel()

	m.SetDevices([]serialwatch.DeviceInfo{device("/dev/ttyUSB1"), device("/dev/ttyACM0")})
	require.Equal(t, 2, m.Count())

	devices := m.Devices()
	assert.Equal(t, "/dev/ttyACM0", devices[0].PortName)
	assert.Equal(t, "/dev/ttyUSB1", devices[1].PortName)

	m.SetDevices(nil)
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, "netlink", m.Source())
}

func TestWatchModelApply(t *testing.T) {
	m := NewWatchModel("udev")
	defer m.Cancel()
	m.SetDevices([]serialwatch.DeviceInfo{device("/dev/ttyS0")})

	assert.True(t, m.Apply(serialwatch.Connected{Device: device("/dev/ttyUSB0"), Time: testTime}))
	assert.Equal(t, 2, m.Count())

	updated := device("/dev/ttyUSB0")
	updated.Config.BaudRate = serialwatch.Baud115200
	assert.True(t, m.Apply(serialwatch.Connected{Device: updated, Time: testTime}))
	assert.Equal(t, 2, m.Count(), "reconnecting a known port replaces it")
	assert.Equal(t, serialwatch.Baud115200, m.Devices()[1].Config.BaudRate)

	assert.True(t, m.Apply(serialwatch.Disconnected{Device: device("/dev/ttyS0"), Time: testTime}))
	assert.False(t, m.Apply(serialwatch.Disconnected{Device: device("/dev/ttyS0"), Time: testTime}),
		"a port that is already gone does not change the set")
	assert.Equal(t, 1, m.Count())

	connects, disconnects, failures := m.Stats()
	assert.Equal(t, 2, connects)
	assert.Equal(t, 2, disconnects)
	assert.Equal(t, 0, failures)
	assert.Equal(t, testTime, m.LastEventTime())
}

func TestWatchModelApplyError(t *testing.T) {
	m := NewWatchModel("devfs")
	defer m.Cancel()

	assert.Nil(t, m.LastEvent())
	assert.True(t, m.LastEventTime().IsZero())

	err := fmt.Errorf("%w: /dev/ttyUSB3: no such device", serialwatch.ErrPortPropertiesExtractionFailed)
	assert.False(t, m.Apply(serialwatch.Error{Err: err, Time: testTime}))
	assert.ErrorIs(t, m.GetError(), serialwatch.ErrPortPropertiesExtractionFailed)
	assert.False(t, m.IsEnumerationError())
	assert.IsType(t, serialwatch.Error{}, m.LastEvent())

	_, _, failures := m.Stats()
	assert.Equal(t, 1, failures)

	m.ClearError()
	assert.NoError(t, m.GetError())

	m.SetError(fmt.Errorf("%w: boom", serialwatch.ErrEnumerationFailed))
	assert.True(t, m.IsEnumerationError())
	m.SetError(errors.New("other"))
	assert.False(t, m.IsEnumerationError())
}

func TestWatchModelLifecycle(t *testing.T) {
	m := NewWatchModel("poll")

	assert.False(t, m.IsReady())
	m.SetReady(true)
	assert.True(t, m.IsReady())

	assert.False(t, m.IsStopped())
	m.SetStopped()
	assert.True(t, m.IsStopped())

	assert.NoError(t, m.GetContext().Err())
	m.Cancel()
	assert.ErrorIs(t, m.GetContext().Err(), context.Canceled)
}
