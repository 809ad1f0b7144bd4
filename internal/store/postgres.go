package store

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"vestquest-engine/internal/model"
)

//go:embed schema.sql
var schema string

type PostgresStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgresStore(ctx context.Context, dbURL string, log *slog.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool, log: log}, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Grants(ctx context.Context, tenantID string, ids []string) ([]model.Grant, error) {
	query := `
		SELECT id, company, grant_type, total_shares, strike_price::text, fair_market_value::text,
		       grant_date, vesting_start_date, vesting_end_date, vesting_months, cliff_months,
		       vesting_frequency, vested_override
		FROM equity_grants
		WHERE tenant_id = $1 AND ($2::text[] IS NULL OR id = ANY($2))
		ORDER BY created_at, id
	`

	rows, err := s.pool.Query(ctx, query, tenantID, nullable(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query grants: %w", err)
	}
	defer rows.Close()

	var grants []model.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grants: %w", err)
	}

	s.log.Debug("Loaded grants", "tenant_id", tenantID, "requested", len(ids), "found", len(grants))
	return grants, nil
}

func scanGrant(rows pgx.Rows) (model.Grant, error) {
	var (
		g                     model.Grant
		grantType, frequency  string
		strike, fmv           string
		grantDate, start, end *time.Time
		override              *int64
	)
	err := rows.Scan(&g.ID, &g.Company, &grantType, &g.TotalShares, &strike, &fmv,
		&grantDate, &start, &end, &g.VestingMonths, &g.CliffMonths, &frequency, &override)
	if err != nil {
		return g, fmt.Errorf("failed to scan grant row: %w", err)
	}

	g.GrantType = model.GrantType(grantType)
	g.VestingFrequency = model.VestingFrequency(frequency)
	if g.StrikePrice, err = decimal.NewFromString(strike); err != nil {
		return g, fmt.Errorf("grant %s strike_price: %w", g.ID, err)
	}
	if g.FairMarketValue, err = decimal.NewFromString(fmv); err != nil {
		return g, fmt.Errorf("grant %s fair_market_value: %w", g.ID, err)
	}
	g.GrantDate = date(grantDate)
	g.VestingStartDate = date(start)
	g.VestingEndDate = date(end)
	if override != nil {
		g.VestedShares = model.Overridden(*override)
	}
	return g, nil
}

func (s *PostgresStore) Scenarios(ctx context.Context, tenantID string, names []string) ([]model.Scenario, error) {
	query := `
		SELECT name, exit_price::text, multiplier::text, preset, grant_ids, exercise_date, sale_date
		FROM exit_scenarios
		WHERE tenant_id = $1 AND ($2::text[] IS NULL OR name = ANY($2))
		ORDER BY position
	`

	rows, err := s.pool.Query(ctx, query, tenantID, nullable(names))
	if err != nil {
		return nil, fmt.Errorf("failed to query scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []model.Scenario
	for rows.Next() {
		var (
			sc               model.Scenario
			exit, multiplier *string
			exercised, sold  *time.Time
		)
		if err := rows.Scan(&sc.Name, &exit, &multiplier, &sc.Preset, &sc.GrantIDs, &exercised, &sold); err != nil {
			return nil, fmt.Errorf("failed to scan scenario row: %w", err)
		}
		if sc.ExitPrice, err = nullDecimal(exit); err != nil {
			return nil, fmt.Errorf("scenario %s exit_price: %w", sc.Name, err)
		}
		if sc.Multiplier, err = nullDecimal(multiplier); err != nil {
			return nil, fmt.Errorf("scenario %s multiplier: %w", sc.Name, err)
		}
		sc.ExerciseDate = date(exercised)
		sc.SaleDate = date(sold)
		scenarios = append(scenarios, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	return scenarios, nil
}

// nullable turns an empty filter into SQL NULL so the query returns every row.
func nullable(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	return keys
}

func date(t *time.Time) civil.Date {
	if t == nil {
		return civil.Date{}
	}
	return civil.DateOf(*t)
}

func nullDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
