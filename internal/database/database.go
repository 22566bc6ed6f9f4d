// Package database owns the PostgreSQL connection and the ORM handle.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	// Register pgx as the database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Load .env file to environments
	_ "github.com/joho/godotenv/autoload"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"prepsphere-backend/internal/model"
	"prepsphere-backend/internal/utilities"
)

// DBinstanceStruct wraps the GORM handle together with the config it was
// opened with and a lazily fetched raw *sql.DB for pool introspection.
type DBinstanceStruct struct {
	*gorm.DB
	Config *DBConfig

	sqlDB *sql.DB
	mu    sync.RWMutex
}

// DBConfig holds connection parameters. When useConstr is set the Constr
// connection string wins and the individual fields are ignored.
type DBConfig struct {
	Host      string
	Port      string
	User      string
	Password  string
	DBName    string
	Constr    string
	useConstr bool
}

func (d *DBConfig) dsn() string {
	if d.useConstr {
		if d.Constr == "" {
			log.Fatal("DATABASE_URL is empty")
		}
		return d.Constr
	}
	if d.Host == "" || d.Port == "" || d.User == "" || d.Password == "" || d.DBName == "" {
		log.Fatal("Database configuration is incomplete")
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.DBName)
}

func configFromEnv() *DBConfig {
	connStr := os.Getenv("DATABASE_URL")
	useConnStr, err := strconv.ParseBool(os.Getenv("USE_CONNECTION_STR"))
	if err != nil {
		useConnStr = connStr != ""
	}

	return &DBConfig{
		Host:      os.Getenv("DB_HOST"),
		Port:      os.Getenv("DB_PORT"),
		User:      os.Getenv("DB_USERNAME"),
		Password:  os.Getenv("DB_PASSWORD"),
		DBName:    os.Getenv("DB_DATABASE"),
		Constr:    connStr,
		useConstr: useConnStr,
	}
}

// dbInstance is the shared handle for the process.
var dbInstance *DBinstanceStruct

// NewDBInstance opens a connection with the given configuration, runs
// migrations and seeds the bootstrap admin when one is configured.
func NewDBInstance(config *DBConfig) (*DBinstanceStruct, error) {
	gdb, err := gorm.Open(postgres.Open(config.dsn()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if gin.IsDebugging() {
		gdb = gdb.Debug()
	}

	inst := &DBinstanceStruct{DB: gdb, Config: config}

	if err := inst.Migrate(); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}
	inst.ensureAdmin()

	return inst, nil
}

// GetMainDB returns the process-wide database instance, opening it from
// environment configuration on first use.
func GetMainDB() (*DBinstanceStruct, error) {
	if dbInstance != nil {
		return dbInstance, nil
	}

	inst, err := NewDBInstance(configFromEnv())
	if err != nil {
		return nil, err
	}
	dbInstance = inst
	return dbInstance, nil
}

// Raw returns the underlying *sql.DB, caching it after the first successful
// retrieval. Safe for concurrent use.
func (d *DBinstanceStruct) Raw() (*sql.DB, error) {
	if d == nil {
		return nil, fmt.Errorf("database instance is nil")
	}

	d.mu.RLock()
	if d.sqlDB != nil {
		raw := d.sqlDB
		d.mu.RUnlock()
		return raw, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sqlDB != nil {
		return d.sqlDB, nil
	}
	if d.DB == nil {
		return nil, fmt.Errorf("gorm DB is nil")
	}
	raw, err := d.DB.DB()
	if err != nil {
		return nil, err
	}
	d.sqlDB = raw
	return raw, nil
}

// ensureAdmin seeds a local admin account from ADMIN_USERNAME/ADMIN_PASSWORD
// when no admin row exists yet.
func (d *DBinstanceStruct) ensureAdmin() {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		log.Println("Admin username or password not set, skipping admin creation")
		return
	}

	var count int64
	d.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count)
	if count == 0 {
		utilities.CreateAdmin(password, username, d.DB)
	}
}

// Migrate runs auto-migration for every registered model.
func (d *DBinstanceStruct) Migrate() error {
	return d.AutoMigrate(model.MigrateAble...)
}

// Health pings the database and reports connection-pool statistics.
func (d *DBinstanceStruct) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	raw, err := d.Raw()
	if err == nil {
		err = raw.PingContext(ctx)
	}
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Printf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	poolStats := raw.Stats()
	stats["open_connections"] = strconv.Itoa(poolStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(poolStats.InUse)
	stats["idle"] = strconv.Itoa(poolStats.Idle)
	stats["wait_count"] = strconv.FormatInt(poolStats.WaitCount, 10)
	stats["wait_duration"] = poolStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(poolStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(poolStats.MaxLifetimeClosed, 10)

	if poolStats.OpenConnections > 40 {
		stats["message"] = "The database is experiencing heavy load."
	}
	if poolStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

// Close closes the underlying connection pool.
func (d *DBinstanceStruct) Close() error {
	log.Printf("Disconnected from database: %s", d.Config.DBName)
	raw, err := d.Raw()
	if err != nil {
		return err
	}
	return raw.Close()
}
