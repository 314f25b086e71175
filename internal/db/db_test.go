package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/fluxio-platform/fluxio/internal/db/models"
)

// TestConnect_SQLite tests SQLite database connection.
func TestConnect_SQLite(t *testing.T) {
	cfg := Config{
		Driver:   "sqlite",
		Database: ":memory:",
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	require.NotNil(t, db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
}

// TestConnect_SQLiteFile tests SQLite with file path.
func TestConnect_SQLiteFile(t *testing.T) {
	cfg := Config{
		Driver:   "sqlite",
		Database: t.TempDir() + "/test.db",
	}

	db, err := Connect(cfg)
	require.NoError(t, err)
	require.NotNil(t, db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
}

// TestConnect_DriverNames tests driver name recognition is case insensitive.
func TestConnect_DriverNames(t *testing.T) {
	for _, driver := range []string{"sqlite", "SQLITE", "SQLite"} {
		t.Run(driver, func(t *testing.T) {
			db, err := Connect(Config{Driver: driver, Database: ":memory:"})
			require.NoError(t, err)
			require.NotNil(t, db)
		})
	}

	// Postgres names pass the driver check even when no server is reachable
	for _, driver := range []string{"postgres", "postgresql", "POSTGRES"} {
		t.Run(driver, func(t *testing.T) {
			_, err := Connect(Config{
				Driver:   driver,
				Host:     "localhost",
				Port:     5432,
				Database: "test",
				Username: "test",
				Password: "test",
				SSLMode:  "disable",
			})
			if err != nil {
				assert.NotContains(t, err.Error(), "unsupported database driver")
			}
		})
	}
}

// TestConnect_UnsupportedDriver tests unsupported database driver.
func TestConnect_UnsupportedDriver(t *testing.T) {
	for _, driver := range []string{"mysql", "oracle", ""} {
		db, err := Connect(Config{Driver: driver, Database: "test"})
		assert.Error(t, err)
		assert.Nil(t, db)
		assert.Contains(t, err.Error(), "unsupported database driver")
	}
}

// TestParseLogLevel tests SQL log level parsing.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected logger.LogLevel
	}{
		{"silent", logger.Silent},
		{"error", logger.Error},
		{"warn", logger.Warn},
		{"info", logger.Info},
		{"INFO", logger.Info},
		{"Warn", logger.Warn},
		{"", logger.Silent},
		{"bogus", logger.Silent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLogLevel(tt.level), tt.level)
	}
}

// TestAutoMigrate tests automatic migration.
func TestAutoMigrate(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Database: ":memory:"})
	require.NoError(t, err)

	err = AutoMigrate(db)
	assert.NoError(t, err)

	tables := []string{
		"tenants",
		"users",
		"spaces",
		"equipment",
		"workshops",
		"reservations",
		"reservation_counters",
		"notifications",
	}

	for _, table := range tables {
		t.Run("table_"+table, func(t *testing.T) {
			assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
		})
	}
}

// TestAutoMigrate_CreateRecords tests creating records after migration.
func TestAutoMigrate_CreateRecords(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	tenant := &models.Tenant{
		Name: "Test Tenant",
		Slug: "testtenant",
	}
	require.NoError(t, db.Create(tenant).Error)
	assert.NotEmpty(t, tenant.ID)

	user := &models.User{
		Email:    "test@example.com",
		Password: "hashedpassword",
		LastName: "Garcia",
		Role:     models.RoleUser,
		TenantID: &tenant.ID,
	}
	require.NoError(t, db.Create(user).Error)
	assert.NotEmpty(t, user.ID)

	space := &models.Space{
		TenantID: tenant.ID,
		Name:     "Sala A",
		Capacity: 12,
	}
	require.NoError(t, db.Create(space).Error)
	assert.NotEmpty(t, space.ID)
}

// TestAutoMigrate_ForeignKeys tests foreign key relationships.
func TestAutoMigrate_ForeignKeys(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	tenant := &models.Tenant{Name: "FK Tenant", Slug: "fktest"}
	require.NoError(t, db.Create(tenant).Error)

	user := &models.User{
		Email:    "fk@example.com",
		Password: "hash",
		LastName: "Lopez",
		Role:     models.RoleUser,
		TenantID: &tenant.ID,
	}
	require.NoError(t, db.Create(user).Error)

	var loadedUser models.User
	require.NoError(t, db.Preload("Tenant").First(&loadedUser, user.ID).Error)
	require.NotNil(t, loadedUser.Tenant)
	assert.Equal(t, tenant.ID, loadedUser.Tenant.ID)
	assert.Equal(t, "FK Tenant", loadedUser.Tenant.Name)
}

// TestAutoMigrate_MultipleRuns tests running AutoMigrate multiple times.
func TestAutoMigrate_MultipleRuns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Database: ":memory:"})
	require.NoError(t, err)

	assert.NoError(t, AutoMigrate(db))
	assert.NoError(t, AutoMigrate(db))

	assert.True(t, db.Migrator().HasTable("tenants"))
	assert.True(t, db.Migrator().HasTable("reservation_counters"))
}
