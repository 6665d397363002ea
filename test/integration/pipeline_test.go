package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/internal/repositories/customer"
	"github.com/Ramsey-B/fern/internal/repositories/order"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/kpi"
	"github.com/Ramsey-B/fern/pkg/loader"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/money"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "fern"
	}

	cfg := database.Config{
		Host:     dbHost,
		Port:     dbPort,
		UserName: dbUser,
		Password: dbPass,
		Name:     dbName,
		SSLMode:  "disable",
	}

	sqlxDB, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}

	logger := getTestLogger()
	db := database.NewDatabaseInstance(sqlxDB, logger)

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{FolderPath: "../../db/pg"})
	require.NoError(t, migrations.Up(db))

	return db
}

func cleanTables(t *testing.T, db database.DB) {
	ctx := context.Background()
	for _, table := range []string{"order_items", "orders", "customers"} {
		_, err := db.ExecContext(ctx, "DELETE FROM "+table)
		require.NoError(t, err)
	}
}

func fixtureView(now time.Time) *models.UnifiedView {
	customers := map[string]models.Customer{
		"C001": {CustomerID: "C001", Name: "Asha Rao", Phone: "9876543210", Region: "SOUTH", RegisteredAt: now.AddDate(0, -3, 0)},
		"C002": {CustomerID: "C002", Name: "Vikram Iyer", Phone: "9123456780", Region: "NORTH", RegisteredAt: now.AddDate(0, -2, 0)},
		"C003": {CustomerID: "C003", Name: "No Region", Phone: "9000000000", Region: "", RegisteredAt: now.AddDate(0, -1, 0)},
	}

	resolved := func(orderID, customerID string, at time.Time, items ...models.OrderItem) models.ResolvedOrder {
		var total money.Amount
		for _, it := range items {
			total = total.Add(it.LineTotal)
		}
		c := customers[customerID]
		return models.ResolvedOrder{
			Order: models.Order{
				OrderID:    orderID,
				CustomerID: customerID,
				OrderedAt:  at,
				Total:      total,
				Region:     c.Region,
			},
			Customer: c,
			Items:    items,
		}
	}
	item := func(orderID, sku string, qty int, unitMinor int64) models.OrderItem {
		return models.OrderItem{
			OrderID:   orderID,
			SKU:       sku,
			Quantity:  qty,
			UnitPrice: money.FromMinor(unitMinor),
			LineTotal: money.FromMinor(unitMinor).MulQuantity(qty),
		}
	}

	return &models.UnifiedView{
		Customers: customers,
		Orders: []models.ResolvedOrder{
			resolved("O100", "C001", now.AddDate(0, 0, -5), item("O100", "SKU-1", 2, 2550)),
			resolved("O101", "C001", now.AddDate(0, 0, -10), item("O101", "SKU-2", 1, 1000)),
			resolved("O102", "C002", now.AddDate(0, 0, -2), item("O102", "SKU-3", 3, 5000)),
			resolved("O103", "C003", now.AddDate(0, -2, 0), item("O103", "SKU-4", 1, 500)),
		},
	}
}

func TestLoader_Idempotence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := getTestDB(t)
	defer db.Close()
	cleanTables(t, db)

	logger := getTestLogger()
	customerRepo := customer.NewRepository(db, logger)
	orderRepo := order.NewRepository(db, logger)
	ld := loader.New(db, customerRepo, orderRepo, logger)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	view := fixtureView(now)

	require.NoError(t, ld.Load(ctx, view))

	countRows := func() (int, int, int) {
		var customers, orders, items int
		require.NoError(t, db.GetContext(ctx, &customers, "SELECT COUNT(*) FROM customers"))
		require.NoError(t, db.GetContext(ctx, &orders, "SELECT COUNT(*) FROM orders"))
		require.NoError(t, db.GetContext(ctx, &items, "SELECT COUNT(*) FROM order_items"))
		return customers, orders, items
	}

	c1, o1, i1 := countRows()
	assert.Equal(t, 3, c1)
	assert.Equal(t, 4, o1)
	assert.Equal(t, 4, i1)

	// Replaying the identical view must converge on the same rows.
	require.NoError(t, ld.Load(ctx, view))
	c2, o2, i2 := countRows()
	assert.Equal(t, c1, c2)
	assert.Equal(t, o1, o2)
	assert.Equal(t, i1, i2)

	t.Run("reloading updates in place", func(t *testing.T) {
		view.Customers["C001"] = models.Customer{
			CustomerID:   "C001",
			Name:         "Asha R",
			Phone:        "9876543210",
			Region:       "WEST",
			RegisteredAt: now.AddDate(0, -3, 0),
		}
		require.NoError(t, ld.Load(ctx, view))

		got, err := customerRepo.Get(ctx, "C001")
		require.NoError(t, err)
		assert.Equal(t, "Asha R", got.Name)
		assert.Equal(t, "WEST", got.Region)

		c3, _, _ := countRows()
		assert.Equal(t, c1, c3)
	})

	t.Run("item replacement follows the feed", func(t *testing.T) {
		view.Orders[0].Items = []models.OrderItem{
			{OrderID: "O100", SKU: "SKU-9", Quantity: 1, UnitPrice: money.FromMinor(100), LineTotal: money.FromMinor(100)},
		}
		view.Orders[0].Order.Total = money.FromMinor(100)
		require.NoError(t, ld.Load(ctx, view))

		got, err := orderRepo.Get(ctx, "O100")
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "SKU-9", got.Items[0].SKU)
		assert.Equal(t, money.FromMinor(100), got.Order.Total)
	})
}

func TestKPIBackends_Parity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := getTestDB(t)
	defer db.Close()
	cleanTables(t, db)

	logger := getTestLogger()
	customerRepo := customer.NewRepository(db, logger)
	orderRepo := order.NewRepository(db, logger)
	ld := loader.New(db, customerRepo, orderRepo, logger)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	view := fixtureView(now)
	require.NoError(t, ld.Load(ctx, view))

	memory, err := kpi.Compute(ctx, kpi.NewMemoryEngine(view), now, 30, 10)
	require.NoError(t, err)
	relational, err := kpi.Compute(ctx, kpi.NewRelationalEngine(db, logger), now, 30, 10)
	require.NoError(t, err)

	diffs := kpi.Diff(memory, relational)
	assert.Empty(t, diffs, "backends disagree: %v", diffs)

	t.Run("expected shape", func(t *testing.T) {
		require.Len(t, memory.RepeatCustomers, 1)
		assert.Equal(t, "C001", memory.RepeatCustomers[0].CustomerID)
		assert.Equal(t, 1, memory.RegionlessOrders)
		assert.Len(t, memory.TopCustomers, 2)
	})

	t.Run("scoped engine ignores rows from other runs", func(t *testing.T) {
		previous := &models.UnifiedView{
			Customers: map[string]models.Customer{
				"C009": {CustomerID: "C009", Name: "Prior Run", Phone: "9555555555", Region: "EAST", RegisteredAt: now.AddDate(0, -6, 0)},
			},
			Orders: []models.ResolvedOrder{
				{
					Order: models.Order{
						OrderID:    "O900",
						CustomerID: "C009",
						OrderedAt:  now.AddDate(0, -3, 0),
						Total:      money.FromMinor(9900),
						Region:     "EAST",
					},
					Customer: models.Customer{CustomerID: "C009", Region: "EAST"},
					Items: []models.OrderItem{
						{OrderID: "O900", SKU: "SKU-OLD", Quantity: 1, UnitPrice: money.FromMinor(9900), LineTotal: money.FromMinor(9900)},
					},
				},
			},
		}
		require.NoError(t, ld.Load(ctx, previous))

		scoped, err := kpi.Compute(ctx, kpi.NewRelationalEngine(db, logger).ScopedTo(view.OrderIDs()), now, 30, 10)
		require.NoError(t, err)
		assert.Empty(t, kpi.Diff(memory, scoped))

		full, err := kpi.Compute(ctx, kpi.NewRelationalEngine(db, logger), now, 30, 10)
		require.NoError(t, err)
		assert.NotEmpty(t, kpi.Diff(memory, full))
	})
}
