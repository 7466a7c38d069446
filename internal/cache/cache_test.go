package cache

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodCashCache_PutGet(t *testing.T) {
	c := NewPeriodCashCache(time.Minute, 8)
	key := PeriodCashKey{PropertyID: 1, PeriodID: 5}

	_, _, hit := c.Get(key)
	assert.False(t, hit)

	c.Put(key, decimal.RequireFromString("1234.56"), true)

	value, ok, hit := c.Get(key)
	require.True(t, hit)
	assert.True(t, ok)
	assert.True(t, value.Equal(decimal.RequireFromString("1234.56")))
}

func TestPeriodCashCache_NegativeResultIsCached(t *testing.T) {
	c := NewPeriodCashCache(time.Minute, 8)
	key := PeriodCashKey{PropertyID: 1, PeriodID: 9}

	c.Put(key, decimal.Zero, false)

	_, ok, hit := c.Get(key)
	require.True(t, hit, "a not-found computation should still be memoized")
	assert.False(t, ok)
}

func TestPeriodCashCache_Expiry(t *testing.T) {
	c := NewPeriodCashCache(10*time.Millisecond, 8)
	key := PeriodCashKey{PropertyID: 1, PeriodID: 5}

	c.Put(key, decimal.NewFromInt(100), true)
	time.Sleep(20 * time.Millisecond)

	_, _, hit := c.Get(key)
	assert.False(t, hit)
}

func TestPeriodCashCache_EvictsWhenFull(t *testing.T) {
	c := NewPeriodCashCache(time.Minute, 3)

	for i := int64(0); i < 5; i++ {
		c.Put(PeriodCashKey{PropertyID: 1, PeriodID: i}, decimal.NewFromInt(i), true)
	}

	assert.LessOrEqual(t, c.Len(), 3)
}
