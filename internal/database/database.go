// Package database owns the SQL connection and cross-driver helpers.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/remfix/remfix/internal/config"
)

var openConnsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "remfix",
	Subsystem: "db",
	Name:      "open_connections",
	Help:      "Open connections reported by the sql pool",
}, []string{"state"})

// Connect opens the configured database, applies pool limits, and verifies
// the connection with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}

	return db, nil
}

// StartPoolStats samples sql pool statistics into prometheus gauges until
// the context is cancelled.
func StartPoolStats(ctx context.Context, db *sqlx.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := db.Stats()
				openConnsGauge.WithLabelValues("open").Set(float64(stats.OpenConnections))
				openConnsGauge.WithLabelValues("in_use").Set(float64(stats.InUse))
				openConnsGauge.WithLabelValues("idle").Set(float64(stats.Idle))
			}
		}
	}()
}
