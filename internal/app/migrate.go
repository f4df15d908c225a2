package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/arcadia-exchange/arcadia-options/internal/model"
)

// migrate 执行数据库迁移
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Balance{},
		&model.OptionTrade{},
		&model.Transaction{},
		&model.OutcomePolicy{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
