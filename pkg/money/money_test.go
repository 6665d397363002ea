package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("plain decimal", func(t *testing.T) {
		a, err := Parse("1234.50")
		require.NoError(t, err)
		assert.Equal(t, int64(123450), a.Minor())
	})

	t.Run("no fractional digits", func(t *testing.T) {
		a, err := Parse("99")
		require.NoError(t, err)
		assert.Equal(t, int64(9900), a.Minor())
	})

	t.Run("one fractional digit", func(t *testing.T) {
		a, err := Parse("0.5")
		require.NoError(t, err)
		assert.Equal(t, int64(50), a.Minor())
	})

	t.Run("surrounding whitespace", func(t *testing.T) {
		a, err := Parse("  12.00 ")
		require.NoError(t, err)
		assert.Equal(t, int64(1200), a.Minor())
	})

	t.Run("zero", func(t *testing.T) {
		a, err := Parse("0")
		require.NoError(t, err)
		assert.Equal(t, int64(0), a.Minor())
	})

	t.Run("empty string", func(t *testing.T) {
		_, err := Parse("")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("not a number", func(t *testing.T) {
		_, err := Parse("12a.50")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, err := Parse("-5.00")
		assert.ErrorIs(t, err, ErrNegative)
	})

	t.Run("sub-paise precision rejected", func(t *testing.T) {
		_, err := Parse("1.005")
		assert.ErrorIs(t, err, ErrPrecision)
	})
}

func TestAmountArithmetic(t *testing.T) {
	t.Run("line total", func(t *testing.T) {
		unit := FromMinor(2550) // 25.50
		assert.Equal(t, FromMinor(7650), unit.MulQuantity(3))
	})

	t.Run("add", func(t *testing.T) {
		assert.Equal(t, FromMinor(300), FromMinor(100).Add(FromMinor(200)))
	})

	t.Run("abs diff", func(t *testing.T) {
		assert.Equal(t, int64(1), FromMinor(100).AbsDiff(FromMinor(101)))
		assert.Equal(t, int64(1), FromMinor(101).AbsDiff(FromMinor(100)))
		assert.Equal(t, int64(0), FromMinor(100).AbsDiff(FromMinor(100)))
	})
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "1234.50", FromMinor(123450).String())
	assert.Equal(t, "0.05", FromMinor(5).String())
	assert.Equal(t, "0.00", FromMinor(0).String())
}

func TestAmountJSON(t *testing.T) {
	t.Run("marshal as plain number", func(t *testing.T) {
		b, err := json.Marshal(FromMinor(123450))
		require.NoError(t, err)
		assert.Equal(t, "1234.50", string(b))
	})

	t.Run("unmarshal number", func(t *testing.T) {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte("12.34"), &a))
		assert.Equal(t, FromMinor(1234), a)
	})

	t.Run("unmarshal quoted string", func(t *testing.T) {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(`"12.34"`), &a))
		assert.Equal(t, FromMinor(1234), a)
	})
}

func TestAmountSQL(t *testing.T) {
	t.Run("value is minor units", func(t *testing.T) {
		v, err := FromMinor(1234).Value()
		require.NoError(t, err)
		assert.Equal(t, int64(1234), v)
	})

	t.Run("scan int64", func(t *testing.T) {
		var a Amount
		require.NoError(t, a.Scan(int64(5678)))
		assert.Equal(t, FromMinor(5678), a)
	})

	t.Run("scan nil", func(t *testing.T) {
		var a Amount
		require.NoError(t, a.Scan(nil))
		assert.Equal(t, FromMinor(0), a)
	})

	t.Run("scan unsupported type", func(t *testing.T) {
		var a Amount
		assert.Error(t, a.Scan("12.34"))
	})
}
