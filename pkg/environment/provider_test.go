package environment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_DerivesReservedKeys(t *testing.T) {
	at := time.Date(2026, 7, 31, 10, 30, 0, 0, time.UTC) // Friday
	env := Build(Request{IPAddress: "10.0.0.1", RequestMethod: "GET"}, at, nil)

	assert.Equal(t, "10.0.0.1", env[KeyIPAddress])
	assert.Equal(t, "GET", env[KeyRequestMethod])
	assert.Equal(t, "10", env[KeyHourOfDay])
	assert.Equal(t, "Fri", env[KeyDayOfWeek])
	assert.Equal(t, "true", env[KeyIsBusinessHours])
}

func TestBuild_OutsideBusinessHours(t *testing.T) {
	at := time.Date(2026, 7, 31, 20, 0, 0, 0, time.UTC)
	env := Build(Request{}, at, nil)
	assert.Equal(t, "false", env[KeyIsBusinessHours])
}

func TestBuild_CallerOverrideWins(t *testing.T) {
	at := time.Date(2026, 7, 31, 10, 0, 0, 0, time.UTC)
	env := Build(Request{IPAddress: "10.0.0.1"}, at, map[string]string{KeyIPAddress: "203.0.113.5"})
	assert.Equal(t, "203.0.113.5", env[KeyIPAddress])
}

func TestIsBusinessHours_Boundaries(t *testing.T) {
	require.False(t, IsBusinessHours(7))
	require.True(t, IsBusinessHours(8))
	require.True(t, IsBusinessHours(17))
	require.False(t, IsBusinessHours(18))
}
