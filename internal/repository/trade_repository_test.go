package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
)

func TestTradeRepository_GetByTradeID(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewTradeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "trade_id", "user_id", "symbol", "direction", "amount", "entry_price", "status"}).
		AddRow(1, "T100", "u1", "BTCUSDT", 1, "100", "50000", 1)

	mock.ExpectQuery(`SELECT \* FROM "option_trades" WHERE trade_id = \$1`).
		WithArgs("T100", 1).
		WillReturnRows(rows)

	trade, err := repo.GetByTradeID(context.Background(), "T100")
	require.NoError(t, err)
	assert.Equal(t, "T100", trade.TradeID)
	assert.Equal(t, model.TradeStatusPending, trade.Status)
	assert.True(t, trade.Amount.Equal(decimal.NewFromInt(100)))
}

func TestTradeRepository_GetByTradeID_NotFound(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewTradeRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "option_trades"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trade_id"}))

	_, err := repo.GetByTradeID(context.Background(), "T404")
	assert.ErrorIs(t, err, ErrTradeNotFound)
}

func TestTradeRepository_MarkCompleted(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewTradeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "option_trades"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.MarkCompleted(context.Background(), "T100",
		decimal.NewFromInt(50100), decimal.NewFromInt(15), true, 1700000000000)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTradeRepository_MarkCompleted_AlreadySettled(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewTradeRepository(db)

	// 状态已非 pending, CAS 未命中
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "option_trades"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.MarkCompleted(context.Background(), "T100",
		decimal.NewFromInt(50100), decimal.NewFromInt(15), true, 1700000000000)
	assert.ErrorIs(t, err, ErrOptimisticLock)
}

func TestTradeRepository_MarkCancelled_Expired(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewTradeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "option_trades"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.MarkCancelled(context.Background(), "T100", 1700000000000)
	assert.ErrorIs(t, err, ErrOptimisticLock)
}

func TestTradeRepository_ListExpiredPending(t *testing.T) {
	db, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewTradeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "trade_id", "user_id", "symbol", "status", "expires_at"}).
		AddRow(1, "T1", "u1", "BTCUSDT", 1, 1699999999000).
		AddRow(2, "T2", "u2", "ETHUSDT", 1, 1699999999500)

	mock.ExpectQuery(`SELECT \* FROM "option_trades" WHERE status = \$1 AND expires_at <= \$2`).
		WithArgs(model.TradeStatusPending, int64(1700000000000), 100).
		WillReturnRows(rows)

	trades, err := repo.ListExpiredPending(context.Background(), 1700000000000, 100)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "T1", trades[0].TradeID)
	assert.Equal(t, "T2", trades[1].TradeID)
}
