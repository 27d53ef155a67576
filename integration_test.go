//go:build integration
// +build integration

package mostrador_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nachodm/mostrador-backend/internal/debt"
	"github.com/nachodm/mostrador-backend/internal/sale"
	"github.com/nachodm/mostrador-backend/pkg/database"
	"github.com/nachodm/mostrador-backend/pkg/events"
)

// setupTestDB starts a PostgreSQL container, runs migrations and returns a
// connected gorm handle plus a cleanup function.
func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := pgcontainer.RunContainer(ctx,
		testcontainers.WithImage("postgres:alpine"),
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("testuser"),
		pgcontainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	require.NoError(t, database.Migrate(db))

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}
	return db, cleanup
}

func seedUser(t *testing.T, db *gorm.DB) database.User {
	t.Helper()
	user := database.User{Username: "cashier-" + uuid.NewString()[:8], PasswordHash: "x", Role: "employee", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedCustomer(t *testing.T, db *gorm.DB, name string) database.Customer {
	t.Helper()
	customer := database.Customer{Name: name}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price, available float64, byWeight bool) database.Product {
	t.Helper()
	product := database.Product{
		Name:         name,
		SellByWeight: byWeight,
		Available:    available,
		CostPrice:    price / 2,
		SalePrice:    price,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func registerCreditSale(t *testing.T, db *gorm.DB, svc *sale.Service, user database.User, customer database.Customer, product database.Product, qty float64) *database.Sale {
	t.Helper()
	s, err := svc.Register(context.Background(), sale.RegisterInput{
		Lines:         []sale.Line{{ProductID: product.ID, Quantity: qty}},
		PaymentMethod: database.PaymentCredit,
		CustomerID:    &customer.ID,
		UserID:        user.ID,
	})
	require.NoError(t, err)
	return s
}

func TestPaymentAllocationFIFO(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	dispatcher := events.NewDispatcher()
	saleSvc := sale.NewService(db, dispatcher)
	debtSvc := debt.NewService(db, dispatcher)

	user := seedUser(t, db)
	customer := seedCustomer(t, db, "Maria")
	older := seedProduct(t, db, "Bread", 30, 100, false)
	newer := seedProduct(t, db, "Cheese", 50, 100, false)

	// Two credit sales: $30 first, $50 second.
	saleA := registerCreditSale(t, db, saleSvc, user, customer, older, 1)
	time.Sleep(10 * time.Millisecond) // distinct created_at ordering
	saleB := registerCreditSale(t, db, saleSvc, user, customer, newer, 1)

	// A $40 payment settles the $30 debt and leaves $40 on the $50 one.
	result, err := debtSvc.RegisterPayment(context.Background(), customer.ID, 40)
	require.NoError(t, err)
	assert.Equal(t, 40.0, result.Applied)
	assert.Equal(t, 0.0, result.Unapplied)
	require.Len(t, result.Allocations, 2)
	assert.Equal(t, 30.0, result.Allocations[0].Amount)
	assert.True(t, result.Allocations[0].Settled)
	assert.Equal(t, 10.0, result.Allocations[1].Amount)
	assert.False(t, result.Allocations[1].Settled)

	var debtA, debtB database.Debt
	require.NoError(t, db.Where("sale_id = ?", saleA.ID).First(&debtA).Error)
	require.NoError(t, db.Where("sale_id = ?", saleB.ID).First(&debtB).Error)
	assert.Equal(t, 0.0, debtA.RemainingAmount)
	assert.Equal(t, database.DebtPaid, debtA.Status)
	assert.Equal(t, 40.0, debtB.RemainingAmount)
	assert.Equal(t, database.DebtPartial, debtB.Status)

	// One payment row per touched debt.
	var payments []database.Payment
	require.NoError(t, db.Where("customer_id = ?", customer.ID).Order("amount DESC").Find(&payments).Error)
	require.Len(t, payments, 2)
	assert.Equal(t, 30.0, payments[0].Amount)
	assert.Equal(t, 10.0, payments[1].Amount)

	// Overpayment is clamped to the outstanding $40; the rest is change.
	result, err = debtSvc.RegisterPayment(context.Background(), customer.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, 40.0, result.Applied)
	assert.Equal(t, 60.0, result.Unapplied)

	// Conservation: recorded payments sum to the original debt total.
	var paid struct{ Total float64 }
	require.NoError(t, db.Model(&database.Payment{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("customer_id = ?", customer.ID).
		Scan(&paid).Error)
	assert.Equal(t, 80.0, paid.Total)

	outstanding, err := debtSvc.Outstanding(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, outstanding)

	// Settled debts are kept, not deleted.
	var debtCount int64
	require.NoError(t, db.Model(&database.Debt{}).Where("customer_id = ?", customer.ID).Count(&debtCount).Error)
	assert.Equal(t, int64(2), debtCount)

	// Nothing left to pay.
	_, err = debtSvc.RegisterPayment(context.Background(), customer.ID, 10)
	assert.ErrorIs(t, err, debt.ErrNoPendingDebts)

	_, err = debtSvc.RegisterPayment(context.Background(), customer.ID, -5)
	assert.ErrorIs(t, err, debt.ErrInvalidAmount)
}

func TestSaleAtomicity(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	dispatcher := events.NewDispatcher()
	saleSvc := sale.NewService(db, dispatcher)
	user := seedUser(t, db)

	inStock := seedProduct(t, db, "Milk", 10, 10, false)
	outOfStock := seedProduct(t, db, "Butter", 20, 0, false)

	_, err := saleSvc.Register(context.Background(), sale.RegisterInput{
		Lines: []sale.Line{
			{ProductID: inStock.ID, Quantity: 2},
			{ProductID: outOfStock.ID, Quantity: 1},
		},
		PaymentMethod: database.PaymentCash,
		UserID:        user.ID,
	})
	var stockErr *sale.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, outOfStock.ID, stockErr.ProductID)

	// The whole sale rolled back: no header, no items, stock untouched.
	var saleCount, itemCount int64
	require.NoError(t, db.Model(&database.Sale{}).Count(&saleCount).Error)
	require.NoError(t, db.Model(&database.SaleItem{}).Count(&itemCount).Error)
	assert.Equal(t, int64(0), saleCount)
	assert.Equal(t, int64(0), itemCount)

	var reloaded database.Product
	require.NoError(t, db.First(&reloaded, "id = ?", inStock.ID).Error)
	assert.Equal(t, 10.0, reloaded.Available)
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	dispatcher := events.NewDispatcher()
	saleSvc := sale.NewService(db, dispatcher)
	user := seedUser(t, db)
	product := seedProduct(t, db, "Eggs", 5, 3, false)

	// Two concurrent sales of 2 units each against a stock of 3: exactly
	// one can succeed.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = saleSvc.Register(context.Background(), sale.RegisterInput{
				Lines:         []sale.Line{{ProductID: product.ID, Quantity: 2}},
				PaymentMethod: database.PaymentCash,
				UserID:        user.ID,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var stockErr *sale.InsufficientStockError
			assert.ErrorAs(t, err, &stockErr)
		}
	}
	assert.Equal(t, 1, succeeded)

	var reloaded database.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 1.0, reloaded.Available)
}

func TestWeightSaleDeductsFractionalStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	dispatcher := events.NewDispatcher()
	saleSvc := sale.NewService(db, dispatcher)
	user := seedUser(t, db)
	product := seedProduct(t, db, "Ham", 12.50, 5, true)

	s, err := saleSvc.Register(context.Background(), sale.RegisterInput{
		Lines:         []sale.Line{{ProductID: product.ID, Quantity: 0.75}},
		PaymentMethod: database.PaymentCash,
		UserID:        user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 9.38, s.Total) // 0.75 * 12.50 rounded to cents

	var reloaded database.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 4.25, reloaded.Available)

	// Unit products reject fractional quantities.
	unit := seedProduct(t, db, "Soda", 3, 10, false)
	_, err = saleSvc.Register(context.Background(), sale.RegisterInput{
		Lines:         []sale.Line{{ProductID: unit.ID, Quantity: 1.5}},
		PaymentMethod: database.PaymentCash,
		UserID:        user.ID,
	})
	assert.ErrorIs(t, err, sale.ErrInvalidQuantity)
}

func TestCreditSaleCreatesDebt(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	dispatcher := events.NewDispatcher()
	saleSvc := sale.NewService(db, dispatcher)
	user := seedUser(t, db)
	customer := seedCustomer(t, db, "Jorge")
	product := seedProduct(t, db, "Rice", 8, 20, false)

	// Credit without a customer is rejected up front.
	_, err := saleSvc.Register(context.Background(), sale.RegisterInput{
		Lines:         []sale.Line{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: database.PaymentCredit,
		UserID:        user.ID,
	})
	assert.ErrorIs(t, err, sale.ErrCustomerRequired)

	s := registerCreditSale(t, db, saleSvc, user, customer, product, 3)

	var d database.Debt
	require.NoError(t, db.Where("sale_id = ?", s.ID).First(&d).Error)
	assert.Equal(t, customer.ID, d.CustomerID)
	assert.Equal(t, 24.0, d.OriginalAmount)
	assert.Equal(t, 24.0, d.RemainingAmount)
	assert.Equal(t, database.DebtPending, d.Status)
}
