package database

import (
	"fmt"

	"condo-http-service/internal/domain/models"

	"gorm.io/gorm"
)

// Models 所有需要迁移的模型，父表在前
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Apartment{},
		&models.Invoice{},
		&models.LockerItem{},
		&models.Complaint{},
		&models.Survey{},
		&models.SurveyQuestion{},
		&models.SurveyChoice{},
		&models.SurveyResponse{},
		&models.SurveyAnswer{},
	}
}

// AutoMigrate 自动迁移所有模型（只添加新列和新表）
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// DropAndRecreate 删除并重建所有表
func DropAndRecreate(db *gorm.DB) error {
	all := Models()
	// 先删子表
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return AutoMigrate(db)
}

// Migrate 按迁移模式执行：drop 删除重建，其余按 auto 处理
func Migrate(db *gorm.DB, mode string) error {
	if mode == "drop" {
		return DropAndRecreate(db)
	}
	return AutoMigrate(db)
}
