package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB 创建基于 sqlmock 的 gorm 连接
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock, func() { db.Close() }
}

func TestPagination_Defaults(t *testing.T) {
	p := &Pagination{}
	require.Equal(t, 0, p.Offset())
	require.Equal(t, 20, p.Limit())

	p = &Pagination{Page: 3, PageSize: 50}
	require.Equal(t, 100, p.Offset())
	require.Equal(t, 50, p.Limit())

	p = &Pagination{Page: 1, PageSize: 1000}
	require.Equal(t, 100, p.Limit())
}

func TestTimeRange_IsValid(t *testing.T) {
	require.False(t, (*TimeRange)(nil).IsValid())
	require.False(t, (&TimeRange{Start: 100, End: 50}).IsValid())
	require.True(t, (&TimeRange{Start: 50, End: 100}).IsValid())
}
