// Package changelog records field-level product modifications for the
// audit trail shown in the modifications view.
package changelog

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nachodm/mostrador-backend/pkg/database"
	"gorm.io/gorm"
)

// Logger writes product change rows
type Logger struct {
	db *gorm.DB
}

func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

// LogChange records one field change on a product.
func (l *Logger) LogChange(c *gin.Context, productID uuid.UUID, action, field string, oldValue, newValue interface{}) error {
	userID, _ := uuid.Parse(c.GetString("user_id"))

	change := database.ProductChange{
		UserID:    userID,
		ProductID: &productID,
		Action:    action,
		Field:     field,
		OldValue:  stringify(oldValue),
		NewValue:  stringify(newValue),
	}
	return l.db.Create(&change).Error
}

// LogFieldDiffs records one row per field whose value actually changed.
func (l *Logger) LogFieldDiffs(c *gin.Context, productID uuid.UUID, old, new map[string]interface{}) {
	for field, oldVal := range old {
		newVal, ok := new[field]
		if !ok {
			continue
		}
		if stringify(oldVal) == stringify(newVal) {
			continue
		}
		// Best effort: a failed audit row must not abort the operation.
		_ = l.LogChange(c, productID, "update", field, oldVal, newVal)
	}
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
