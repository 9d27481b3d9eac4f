package sentinel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutcracker-tools/beholder/internal/models"
)

func TestParseSwitchMaster(t *testing.T) {
	t.Run("SentinelPayload", func(t *testing.T) {
		ev, err := ParseSwitchMaster("mypool 10.0.0.1 6379 10.0.0.2 6380")
		require.NoError(t, err)
		assert.Equal(t, "mypool", ev.Pool)
		assert.Equal(t, models.Addr{Host: "10.0.0.1", Port: 6379}, ev.Old)
		assert.Equal(t, models.Addr{Host: "10.0.0.2", Port: 6380}, ev.New)
	})
	t.Run("PrefixedPayload", func(t *testing.T) {
		ev, err := ParseSwitchMaster("switch-master mypool 10.0.0.1 6379 10.0.0.2 6380")
		require.NoError(t, err)
		assert.Equal(t, "mypool", ev.Pool)
		assert.Equal(t, "10.0.0.2:6380", ev.New.String())
	})
	t.Run("ChannelPrefixedPayload", func(t *testing.T) {
		ev, err := ParseSwitchMaster("+switch-master mypool 10.0.0.1 6379 10.0.0.2 6380")
		require.NoError(t, err)
		assert.Equal(t, "mypool", ev.Pool)
	})
	t.Run("ExtraWhitespace", func(t *testing.T) {
		ev, err := ParseSwitchMaster("  mypool   10.0.0.1  6379  10.0.0.2  6380 ")
		require.NoError(t, err)
		assert.Equal(t, "mypool", ev.Pool)
	})
	t.Run("Empty", func(t *testing.T) {
		_, err := ParseSwitchMaster("")
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
	t.Run("TooFewTokens", func(t *testing.T) {
		_, err := ParseSwitchMaster("mypool 10.0.0.1 6379")
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
	t.Run("TooManyTokens", func(t *testing.T) {
		_, err := ParseSwitchMaster("mypool 10.0.0.1 6379 10.0.0.2 6380 extra")
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
	t.Run("UnrelatedEvent", func(t *testing.T) {
		_, err := ParseSwitchMaster("+sdown slave 10.0.0.3:6379 10.0.0.3 6379 @ mypool")
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
	t.Run("BadOldPort", func(t *testing.T) {
		_, err := ParseSwitchMaster("mypool 10.0.0.1 notaport 10.0.0.2 6380")
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
	t.Run("BadNewPort", func(t *testing.T) {
		_, err := ParseSwitchMaster("mypool 10.0.0.1 6379 10.0.0.2 0")
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
	t.Run("PortOutOfRange", func(t *testing.T) {
		_, err := ParseSwitchMaster("mypool 10.0.0.1 6379 10.0.0.2 70000")
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
}
