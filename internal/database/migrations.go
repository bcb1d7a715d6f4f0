package database

import (
	"LinkHub-Backend/internal/domain"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate выполняет автоматические миграции для всех доменных моделей
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("starting database auto-migration")

	// Порядок миграций важен из-за внешних ключей
	models := []interface{}{
		&domain.Plan{},       // Сначала справочники
		&domain.User{},       // Затем пользователи
		&domain.Folder{},     // Папки (зависят от пользователей)
		&domain.Link{},       // Ссылки
		&domain.SubLink{},    // Дочерние ссылки (зависят от ссылок)
		&domain.VisitEvent{}, // События визитов
	}

	for i, model := range models {
		modelName := fmt.Sprintf("%T", model)
		log.Debug("migrating model",
			zap.String("model", modelName),
			zap.Int("step", i+1),
			zap.Int("total", len(models)))

		if err := db.AutoMigrate(model); err != nil {
			log.Error("failed to migrate model",
				zap.String("model", modelName),
				zap.Error(err))
			return fmt.Errorf("failed to migrate model %s: %w", modelName, err)
		}
	}

	log.Info("database auto-migration completed successfully", zap.Int("migrated_models", len(models)))
	return nil
}

// SeedData заполняет базу данных тарифными планами
func SeedData(db *gorm.DB, log *zap.Logger) error {
	// Проверяем, есть ли уже данные
	var count int64
	if err := db.Model(&domain.Plan{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count plans: %w", err)
	}
	if count > 0 {
		log.Info("plans already exist, skipping seeding", zap.Int64("existing_count", count))
		return nil
	}

	plans := domain.DefaultPlans()
	if err := db.Create(&plans).Error; err != nil {
		log.Error("failed to seed plans", zap.Error(err))
		return fmt.Errorf("failed to seed plans: %w", err)
	}

	log.Info("database seeding completed successfully", zap.Int("plans_created", len(plans)))
	return nil
}
