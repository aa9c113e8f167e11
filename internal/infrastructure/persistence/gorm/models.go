// Package gorm provides GORM models and repositories for plans and products
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellpack/engine/internal/domain/plan"
)

// PlanModel represents the GORM model for assembled plans
type PlanModel struct {
	ID                uuid.UUID                     `gorm:"type:char(36);primaryKey"`
	UserID            uuid.UUID                     `gorm:"type:char(36);not null;index:idx_plans_user_created,priority:1"`
	Tier              string                        `gorm:"type:varchar(32);not null"`
	Source            string                        `gorm:"type:varchar(32);not null"`
	Recommendations   JSONList[plan.Recommendation] `gorm:"type:json"`
	GeneralNotes      string                        `gorm:"type:text"`
	Contraindications string                        `gorm:"type:text"`
	Patterns          JSONList[plan.Pattern]        `gorm:"type:json"`
	ExcessPatterns    JSONList[plan.ExcessPattern]  `gorm:"type:json"`
	ItemCount         int                           `gorm:"not null;default:0"`
	TotalPrice        float64                       `gorm:"not null;default:0"`
	CreatedAt         time.Time                     `gorm:"index:idx_plans_user_created,priority:2"`
}

// TableName pins the table name shared with the SQL migrations
func (PlanModel) TableName() string { return "plans" }

// ProductModel represents a purchasable product
type ProductModel struct {
	ID        string    `gorm:"type:varchar(64);primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	SKU       string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Price     float64   `gorm:"not null;default:0"`
	Category  string    `gorm:"type:varchar(64)"`
	SortOrder int       `gorm:"not null;default:0;index"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name shared with the SQL migrations
func (ProductModel) TableName() string { return "products" }

// JSONList stores a slice as a JSON column
type JSONList[T any] []T

// Scan implements the sql.Scanner interface
func (l *JSONList[T]) Scan(value interface{}) error {
	if value == nil {
		*l = JSONList[T]{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into JSONList", value)
	}
}

// Value implements the driver.Valuer interface
func (l JSONList[T]) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// BeforeCreate hook for PlanModel
func (p *PlanModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AutoMigrate creates or updates the plan and product tables
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&ProductModel{}, &PlanModel{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
