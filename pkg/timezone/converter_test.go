package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConverter(t *testing.T) {
	t.Run("valid zone", func(t *testing.T) {
		c, err := NewConverter("Asia/Kolkata")
		require.NoError(t, err)
		assert.Equal(t, "Asia/Kolkata", c.Zone())
	})

	t.Run("unknown zone", func(t *testing.T) {
		_, err := NewConverter("Asia/Nowhere")
		assert.ErrorIs(t, err, ErrUnknownZone)
	})

	t.Run("empty zone", func(t *testing.T) {
		_, err := NewConverter("")
		assert.ErrorIs(t, err, ErrUnknownZone)
	})
}

func TestToUTC(t *testing.T) {
	c, err := NewConverter("Asia/Kolkata")
	require.NoError(t, err)

	t.Run("fixed offset conversion", func(t *testing.T) {
		// IST is UTC+05:30 year round.
		got, err := c.ToUTC("2024-03-15 09:00:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 15, 3, 30, 0, 0, time.UTC), got)
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("T separator layout", func(t *testing.T) {
		got, err := c.ToUTC("2024-03-15T09:00:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 15, 3, 30, 0, 0, time.UTC), got)
	})

	t.Run("date only layout", func(t *testing.T) {
		got, err := c.ToUTC("2024-03-15")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 14, 18, 30, 0, 0, time.UTC), got)
	})

	t.Run("midnight crosses date line", func(t *testing.T) {
		got, err := c.ToUTC("2024-01-01 00:15:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2023, 12, 31, 18, 45, 0, 0, time.UTC), got)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := c.ToUTC("15/03/2024 09:00")
		assert.ErrorIs(t, err, ErrInvalidTimestamp)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := c.ToUTC("   ")
		assert.ErrorIs(t, err, ErrInvalidTimestamp)
	})
}

func TestToUTC_DSTZone(t *testing.T) {
	c, err := NewConverter("America/New_York")
	require.NoError(t, err)

	t.Run("winter offset", func(t *testing.T) {
		got, err := c.ToUTC("2024-01-15 12:00:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC), got)
	})

	t.Run("summer offset", func(t *testing.T) {
		got, err := c.ToUTC("2024-07-15 12:00:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 7, 15, 16, 0, 0, 0, time.UTC), got)
	})
}
