package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// noOverlapDDL backs the therapist lock with a database guarantee: two live
// appointments of one therapist can never share an instant.
const noOverlapDDL = `
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint WHERE conname = 'appointments_no_overlap'
    ) THEN
        ALTER TABLE appointments
            ADD CONSTRAINT appointments_no_overlap
            EXCLUDE USING gist (
                therapist_id WITH =,
                tstzrange(start_time, end_time) WITH &&
            )
            WHERE (status IN ('pending', 'confirmed'));
    END IF;
END
$$;`

func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		PrepareStmt: true,
		Logger:      gormlogger.Default.LogMode(gormlogger.Warn),
	}
	if cfg.IsProduction() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(postgres.Open(cfg.DBUrl), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	res := db.Exec(`
        UPDATE branches
        SET timezone = 'UTC'
        WHERE timezone IS NULL OR timezone = ''
    `)
	if res.Error != nil {
		log.Warn("failed to backfill branch timezones", zap.Error(res.Error))
	} else if res.RowsAffected > 0 {
		log.Info("backfilled branch timezones", zap.Int64("rows", res.RowsAffected))
	}

	return db, nil
}

// Migrate creates the schema and the overlap exclusion constraint. It is
// safe to run on every start.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return fmt.Errorf("enable btree_gist: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Branch{},
		&models.Holiday{},
		&models.Service{},
		&models.TherapistProfile{},
		&models.TherapistAvailability{},
		&models.Appointment{},
		&models.WaitlistEntry{},
		&models.Payment{},
		&models.Invoice{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := db.Exec(noOverlapDDL).Error; err != nil {
		return fmt.Errorf("create appointments_no_overlap: %w", err)
	}
	return nil
}

// Ping reports whether the database answers, for health checks.
func Ping(db *gorm.DB) func() error {
	return func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	}
}
