package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pantrychef/pantry"
)

type ingredientRow struct {
	ID             string  `gorm:"type:char(36);primaryKey"`
	UserID         string  `gorm:"type:varchar(255);not null;index"`
	Name           string  `gorm:"type:varchar(255);not null"`
	Quantity       float64 `gorm:"not null;default:0"`
	Unit           string  `gorm:"type:varchar(50)"`
	Category       string  `gorm:"type:varchar(100)"`
	ExpirationDate *time.Time
	IsTrashed      bool `gorm:"not null;default:false;index"`
	TrashedAt      *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false"`
}

func (ingredientRow) TableName() string { return "pantry_ingredients" }

func rowFromIngredient(ing pantry.Ingredient) ingredientRow {
	return ingredientRow{
		ID:             ing.ID,
		UserID:         ing.UserID,
		Name:           ing.Name,
		Quantity:       ing.Quantity,
		Unit:           ing.Unit,
		Category:       ing.Category,
		ExpirationDate: ing.ExpirationDate,
		IsTrashed:      ing.IsTrashed,
		TrashedAt:      ing.TrashedAt,
		CreatedAt:      ing.CreatedAt,
		UpdatedAt:      ing.UpdatedAt,
	}
}

func (r ingredientRow) toIngredient() pantry.Ingredient {
	return pantry.Ingredient{
		ID:             r.ID,
		Name:           r.Name,
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		Category:       r.Category,
		ExpirationDate: r.ExpirationDate,
		IsTrashed:      r.IsTrashed,
		TrashedAt:      r.TrashedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		UserID:         r.UserID,
	}
}

// SQLStore implements pantry.Store on a SQL database through gorm.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the sqlite database at path and
// migrates the pantry schema.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewSQLStore(db)
}

func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&ingredientRow{}); err != nil {
		return nil, fmt.Errorf("migrate pantry schema: %w", err)
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

func (s *SQLStore) FetchIngredients(ctx context.Context, userID string) ([]pantry.Ingredient, error) {
	var rows []ingredientRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch ingredients: %w", err)
	}
	out := make([]pantry.Ingredient, len(rows))
	for i, r := range rows {
		out[i] = r.toIngredient()
	}
	return out, nil
}

func (s *SQLStore) Add(ctx context.Context, ing pantry.Ingredient) error {
	row := rowFromIngredient(ing)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("add ingredient %s: %w", ing.ID, err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, ing pantry.Ingredient) error {
	row := rowFromIngredient(ing)
	result := s.db.WithContext(ctx).
		Model(&ingredientRow{}).
		Where("id = ?", ing.ID).
		Select("*").
		Omit("created_at").
		Updates(&row)
	if result.Error != nil {
		return fmt.Errorf("update ingredient %s: %w", ing.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return missingIngredient(ing.ID)
	}
	return nil
}

func (s *SQLStore) Trash(ctx context.Context, id string) error {
	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&ingredientRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_trashed": true,
			"trashed_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("trash ingredient %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return missingIngredient(id)
	}
	return nil
}

// Get returns a single ingredient by id.
func (s *SQLStore) Get(ctx context.Context, id string) (pantry.Ingredient, error) {
	var row ingredientRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pantry.Ingredient{}, missingIngredient(id)
	}
	if err != nil {
		return pantry.Ingredient{}, fmt.Errorf("get ingredient %s: %w", id, err)
	}
	return row.toIngredient(), nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
