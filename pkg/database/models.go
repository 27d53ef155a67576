package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment methods accepted at the counter.
const (
	PaymentCash     = "cash"
	PaymentDebit    = "debit"
	PaymentTransfer = "transfer"
	PaymentCredit   = "credit"
)

// Debt statuses.
const (
	DebtPending = "pending"
	DebtPartial = "partial"
	DebtPaid    = "paid"
)

// Base model for all entities
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Product represents a sellable item. Available is a numeric with 3 decimals
// so weight-sold products (kg) and unit-sold products share one column.
type Product struct {
	BaseModel
	Barcode       string  `gorm:"index" json:"barcode"`
	Name          string  `gorm:"uniqueIndex;not null" json:"name"`
	SellByWeight  bool    `gorm:"default:false" json:"sell_by_weight"`
	Available     float64 `gorm:"type:numeric(10,3);default:0" json:"available"`
	CostPrice     float64 `gorm:"not null" json:"cost_price"`
	SalePrice     float64 `gorm:"not null" json:"sale_price"`
	MarginPercent float64 `gorm:"default:0" json:"margin_percent"`
	Ingredients   string  `json:"ingredients"`
	IsActive      bool    `gorm:"default:true" json:"is_active"`
}

// Customer represents a buyer with a credit account
type Customer struct {
	BaseModel
	Name  string `gorm:"not null" json:"name"`
	Phone string `json:"phone"`
}

// Sale represents a completed sale. Immutable once created except for the
// debt linkage on credit sales.
type Sale struct {
	BaseModel
	CustomerID    *uuid.UUID `gorm:"type:uuid" json:"customer_id"`
	Customer      *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	User          User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items         []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
	Total         float64    `gorm:"not null" json:"total"`
	PaymentMethod string     `gorm:"not null" json:"payment_method"` // cash, debit, transfer, credit
}

// SaleItem represents one product line within a sale. Unit price and cost
// are captured at sale time so later price edits cannot rewrite sale history.
type SaleItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SaleID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  float64   `gorm:"type:numeric(10,3);not null" json:"quantity"`
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	UnitCost  float64   `gorm:"not null" json:"unit_cost"`
	Subtotal  float64   `gorm:"not null" json:"subtotal"`
}

// Debt is the outstanding balance created by a credit sale. Settled debts
// keep their row with remaining_amount zeroed and status "paid".
type Debt struct {
	BaseModel
	CustomerID      uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer        Customer  `gorm:"foreignKey:CustomerID" json:"-"`
	SaleID          uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	OriginalAmount  float64   `gorm:"not null" json:"original_amount"`
	RemainingAmount float64   `gorm:"not null" json:"remaining_amount"`
	Status          string    `gorm:"default:'pending'" json:"status"` // pending, partial, paid
}

// Payment is an append-only ledger entry produced by debt settlement.
// One row per (debt, applied amount) pair so payment history can be
// reconstructed per sale.
type Payment struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	DebtID     uuid.UUID `gorm:"type:uuid;not null;index" json:"debt_id"`
	SaleID     uuid.UUID `gorm:"type:uuid;not null" json:"sale_id"`
	Amount     float64   `gorm:"not null" json:"amount"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// User represents a system user
type User struct {
	BaseModel
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `gorm:"default:'employee'" json:"role"` // admin, employee
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	LastLogoutAt *time.Time `json:"last_logout_at"`
}

// ProductChange records a field-level product modification for the audit trail
type ProductChange struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ProductID *uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Action    string     `gorm:"not null" json:"action"` // create, update, delete, stock_adjust
	Field     string     `json:"field"`
	OldValue  string     `json:"old_value"`
	NewValue  string     `json:"new_value"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Product{},
		&Customer{},
		&Sale{},
		&SaleItem{},
		&Debt{},
		&Payment{},
		&ProductChange{},
	)
}
