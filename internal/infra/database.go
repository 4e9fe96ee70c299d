package infra

import (
	"fmt"

	"github.com/Leoramirez777/gestor-prestamista/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the Postgres connection pool and migrates the schema.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// NewSQLite opens an SQLite database and migrates it. Used by repository
// tests and for running the API without Postgres; ":memory:" works.
func NewSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared across queries.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table, then applies the patches
// AutoMigrate cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Empleado{},
		&model.Prestamo{},
		&model.Pago{},
		&model.PrestamoVendedor{},
		&model.PagoVendedor{},
		&model.PagoCobrador{},
		&model.CajaCierre{},
		&model.MovimientoCaja{},
		&model.CajaEmpleadoCierre{},
		&model.CajaEmpleadoMovimiento{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent Postgres-only DDL: partial indexes and
// CHECK constraints. Each statement is guarded so re-running is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"open central days", `
CREATE INDEX IF NOT EXISTS idx_caja_cierres_abiertos
    ON caja_cierres (fecha) WHERE cerrado = false`},
		{"open employee days", `
CREATE INDEX IF NOT EXISTS idx_caja_empleado_cierres_abiertos
    ON caja_empleado_cierres (fecha) WHERE cerrado = false`},
		{"loans by due date", `
CREATE INDEX IF NOT EXISTS idx_prestamos_vigentes
    ON prestamos (fecha_vencimiento) WHERE estado NOT IN ('pagado', 'refinanciado')`},
		{"positive movement amounts", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_caja_movimientos_monto') THEN
    ALTER TABLE caja_movimientos ADD CONSTRAINT chk_caja_movimientos_monto CHECK (monto > 0);
  END IF;
END $$`},
		{"non-negative loan balance", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_prestamos_saldo') THEN
    ALTER TABLE prestamos ADD CONSTRAINT chk_prestamos_saldo CHECK (saldo_pendiente >= 0);
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
