package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupCache(t *testing.T) (*PriceCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewPriceCache(client, zap.NewNop()), mr
}

func TestPriceCache_RoundTrip(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	err := c.SaveLastPrice(ctx, "BTCUSDT", decimal.NewFromFloat(50123.45), time.Now().UnixMilli())
	require.NoError(t, err)

	price, err := c.GetLastPrice(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromFloat(50123.45)))
}

func TestPriceCache_Missing(t *testing.T) {
	c, _ := setupCache(t)

	_, err := c.GetLastPrice(context.Background(), "ETHUSDT")
	assert.ErrorIs(t, err, ErrPriceNotFound)
}

func TestPriceCache_CorruptedData(t *testing.T) {
	c, mr := setupCache(t)

	mr.Set("arcadia:last_price:BTCUSDT", "not-json")

	_, err := c.GetLastPrice(context.Background(), "BTCUSDT")
	assert.ErrorIs(t, err, ErrPriceNotFound)
}

func TestPriceCache_NonPositivePriceRejected(t *testing.T) {
	c, mr := setupCache(t)

	mr.Set("arcadia:last_price:BTCUSDT", `{"symbol":"BTCUSDT","price":"0","timestamp":1700000000000}`)

	_, err := c.GetLastPrice(context.Background(), "BTCUSDT")
	assert.ErrorIs(t, err, ErrPriceNotFound)
}
