package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/chartfeed/shared"
	"github.com/google/uuid"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createBarTableSQL   = "CREATE TABLE IF NOT EXISTS bar (symbol TEXT NOT NULL, interval TEXT NOT NULL, time INTEGER NOT NULL, open REAL, high REAL, low REAL, close REAL, volume REAL, batch TEXT, createdon INTEGER, PRIMARY KEY (symbol, interval, time))"
	createBatchTableSQL = "CREATE TABLE IF NOT EXISTS batch (id TEXT PRIMARY KEY, symbol TEXT, interval TEXT, bars INTEGER, firsttime INTEGER, lasttime INTEGER, createdon INTEGER)"
	persistBarSQL       = "INSERT OR REPLACE INTO bar(symbol, interval, time, open, high, low, close, volume, batch, createdon) VALUES(?,?,?,?,?,?,?,?,?,?)"
	persistBatchSQL     = "INSERT INTO batch(id, symbol, interval, bars, firsttime, lasttime, createdon) VALUES(?,?,?,?,?,?,?)"

	// defaultTimeout is the database client request timeout.
	defaultTimeout = time.Second * 5
)

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
	// Now returns the current time.
	Now func() time.Time
}

// Validate asserts the config sane inputs.
func (cfg *DatabaseConfig) Validate() error {
	var errs error

	if cfg.Endpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("database endpoint cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the BarStorer interface.
var _ shared.BarStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating database config: %w", err)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	httpc := &http.Client{Timeout: defaultTimeout}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	if cfg.User != "" {
		client.SetBasicAuth(cfg.User, cfg.Pass)
	}

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createBarTableSQL},
		{SQL: createBatchTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("creating tables: %d -> %s", idx, errStr)
	}

	return nil
}

// barStatements builds the statements persisting the provided bars as a single batch.
func barStatements(batchID string, symbol string, interval shared.Interval, bars []shared.CandleBar, createdOn int64) rqlitehttp.SQLStatements {
	stmts := make(rqlitehttp.SQLStatements, 0, len(bars)+1)
	for idx := range bars {
		bar := bars[idx]
		stmts = append(stmts, rqlitehttp.SQLStatements{{
			SQL: persistBarSQL,
			PositionalParams: []any{symbol, interval.String(), bar.Time, bar.Open, bar.High,
				bar.Low, bar.Close, bar.Volume, batchID, createdOn},
		}}...)
	}

	var first, last int64
	if len(bars) > 0 {
		first = bars[0].Time
		last = bars[len(bars)-1].Time
	}

	stmts = append(stmts, rqlitehttp.SQLStatements{{
		SQL:              persistBatchSQL,
		PositionalParams: []any{batchID, symbol, interval.String(), len(bars), first, last, createdOn},
	}}...)

	return stmts
}

// PersistBars stores the provided bars of a symbol and interval, replacing previously stored
// bars sharing a timestamp. Each call is tagged with a new batch id.
func (db *Database) PersistBars(ctx context.Context, symbol string, interval shared.Interval, bars []shared.CandleBar) error {
	if len(bars) == 0 {
		return nil
	}

	symbol = strings.ToUpper(symbol)
	batchID := uuid.New().String()
	createdOn := db.cfg.Now().Unix()

	resp, err := db.client.Execute(ctx, barStatements(batchID, symbol, interval, bars, createdOn),
		&rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return fmt.Errorf("persisting %s %s bars: %w", symbol, interval.String(), err)
	}

	has, idx, errStr := resp.HasError()
	if has {
		db.cfg.Logger.Error().Msgf("unexpected response persisting bar batch %s: %s", batchID, spew.Sdump(resp))
		return fmt.Errorf("persisting %s %s bars: %d -> %s", symbol, interval.String(), idx, errStr)
	}

	db.cfg.Logger.Debug().Msgf("persisted %d %s %s bars in batch %s", len(bars), symbol, interval.String(), batchID)

	return nil
}
