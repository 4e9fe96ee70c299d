package service

import (
	"context"
	"time"

	"github.com/Leoramirez777/gestor-prestamista/internal/timeutil"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// conLock runs fn while holding key. A nil locker runs fn unguarded.
func conLock(ctx context.Context, locker DayLocker, key string, fn func() error) error {
	if locker == nil {
		return fn()
	}
	unlock, err := locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

func claveCaja(fecha time.Time) string {
	return "caja:" + timeutil.FormatFecha(fecha)
}

func claveCajaEmpleado(fecha time.Time, empleadoID string) string {
	return "caja_empleado:" + empleadoID + ":" + timeutil.FormatFecha(fecha)
}
