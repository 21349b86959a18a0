package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/vnreg-cli/internal/model"
)

// pgPool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool pgPool
}

// NewPostgres connects to the given database and verifies the connection.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	tax_code              TEXT PRIMARY KEY,
	name                  TEXT NOT NULL DEFAULT '',
	trade_name            TEXT NOT NULL DEFAULT '',
	english_name          TEXT NOT NULL DEFAULT '',
	representative        TEXT NOT NULL DEFAULT '',
	representative_title  TEXT NOT NULL DEFAULT '',
	phone                 TEXT NOT NULL DEFAULT '',
	fax                   TEXT NOT NULL DEFAULT '',
	email                 TEXT NOT NULL DEFAULT '',
	website               TEXT NOT NULL DEFAULT '',
	registered_address    TEXT NOT NULL DEFAULT '',
	province              TEXT NOT NULL DEFAULT '',
	district              TEXT NOT NULL DEFAULT '',
	ward                  TEXT NOT NULL DEFAULT '',
	main_business_line    TEXT NOT NULL DEFAULT '',
	other_business_lines  TEXT NOT NULL DEFAULT '[]',
	entity_type           TEXT NOT NULL DEFAULT '',
	operating_status      TEXT NOT NULL DEFAULT '',
	license_number        TEXT NOT NULL DEFAULT '',
	license_date          TEXT NOT NULL DEFAULT '',
	operation_date        TEXT NOT NULL DEFAULT '',
	last_change_date      TEXT NOT NULL DEFAULT '',
	issuing_authority     TEXT NOT NULL DEFAULT '',
	decision_number       TEXT NOT NULL DEFAULT '',
	charter_capital       TEXT NOT NULL DEFAULT '',
	registered_capital    TEXT NOT NULL DEFAULT '',
	legal_representative  TEXT NOT NULL DEFAULT '',
	secondary_phone       TEXT NOT NULL DEFAULT '',
	tax_address           TEXT NOT NULL DEFAULT '',
	secondary_status      TEXT NOT NULL DEFAULT '',
	secondary_last_update TEXT NOT NULL DEFAULT '',
	source                TEXT NOT NULL DEFAULT 'api',
	raw_primary           TEXT NOT NULL DEFAULT '',
	raw_secondary         TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS logs (
	id      BIGSERIAL PRIMARY KEY,
	ts      TIMESTAMPTZ NOT NULL,
	level   TEXT NOT NULL,
	message TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(operating_status);
CREATE INDEX IF NOT EXISTS idx_companies_business_line ON companies(main_business_line);
CREATE INDEX IF NOT EXISTS idx_companies_province ON companies(province);
CREATE INDEX IF NOT EXISTS idx_companies_source ON companies(source);
CREATE INDEX IF NOT EXISTS idx_logs_ts ON logs(ts);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, taxCode string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM companies WHERE tax_code = $1`, taxCode,
	).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "postgres: exists %s", taxCode)
	}
	return true, nil
}

func (s *PostgresStore) Insert(ctx context.Context, c *model.Company) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	lines, err := json.Marshal(c.OtherBusinessLines)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal business lines")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO companies (`+companyColumns+`) VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		 $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36)`,
		c.TaxCode, c.Name, c.TradeName, c.EnglishName, c.Representative, c.RepresentativeTitle,
		c.Phone, c.Fax, c.Email, c.Website, c.RegisteredAddress, c.Province, c.District, c.Ward,
		c.MainBusinessLine, string(lines), c.EntityType, c.OperatingStatus,
		c.LicenseNumber, c.LicenseDate, c.OperationDate, c.LastChangeDate,
		c.IssuingAuthority, c.DecisionNumber, c.CharterCapital, c.RegisteredCapital,
		c.LegalRepresentative, c.SecondaryPhone, c.TaxAddress, c.SecondaryStatus,
		c.SecondaryLastUpdate, string(c.Source), c.RawPrimary, c.RawSecondary,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert company %s", c.TaxCode)
	}
	return nil
}

// Update mirrors the sqlite variant, including the source monotonicity guard.
func (s *PostgresStore) Update(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()

	lines, err := json.Marshal(c.OtherBusinessLines)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal business lines")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET
			name = $1, trade_name = $2, english_name = $3, representative = $4, representative_title = $5,
			phone = $6, fax = $7, email = $8, website = $9, registered_address = $10, province = $11,
			district = $12, ward = $13, main_business_line = $14, other_business_lines = $15,
			entity_type = $16, operating_status = $17, license_number = $18, license_date = $19,
			operation_date = $20, last_change_date = $21, issuing_authority = $22, decision_number = $23,
			charter_capital = $24, registered_capital = $25, legal_representative = $26,
			secondary_phone = $27, tax_address = $28, secondary_status = $29, secondary_last_update = $30,
			source = CASE WHEN source = 'dual' AND $31 = 'api' THEN source ELSE $31 END,
			raw_primary = $32, raw_secondary = $33, updated_at = $34
		WHERE tax_code = $35`,
		c.Name, c.TradeName, c.EnglishName, c.Representative, c.RepresentativeTitle,
		c.Phone, c.Fax, c.Email, c.Website, c.RegisteredAddress, c.Province,
		c.District, c.Ward, c.MainBusinessLine, string(lines),
		c.EntityType, c.OperatingStatus, c.LicenseNumber, c.LicenseDate,
		c.OperationDate, c.LastChangeDate, c.IssuingAuthority, c.DecisionNumber,
		c.CharterCapital, c.RegisteredCapital, c.LegalRepresentative,
		c.SecondaryPhone, c.TaxAddress, c.SecondaryStatus, c.SecondaryLastUpdate,
		string(c.Source),
		c.RawPrimary, c.RawSecondary, c.UpdatedAt,
		c.TaxCode,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %s", c.TaxCode)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: company %s not found", c.TaxCode)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, taxCode string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE tax_code = $1`, taxCode,
	)
	c, err := scanCompany(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company %s", taxCode)
	}
	return c, nil
}

func (s *PostgresStore) Query(ctx context.Context, f Filter) ([]model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Status != "" {
		query += ` AND operating_status = ` + arg(f.Status)
	}
	if f.BusinessLine != "" {
		query += ` AND main_business_line LIKE ` + arg("%"+f.BusinessLine+"%")
	}
	if f.Province != "" {
		query += ` AND province LIKE ` + arg("%"+f.Province+"%")
	}
	if f.Source != "" {
		query += ` AND source = ` + arg(f.Source)
	}
	query += ` ORDER BY updated_at DESC`

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate companies")
}

func (s *PostgresStore) LogMessage(ctx context.Context, level, message string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO logs (ts, level, message) VALUES ($1, $2, $3)`,
		time.Now().UTC(), level, message,
	)
	return eris.Wrap(err, "postgres: insert log")
}

func (s *PostgresStore) PruneLogs(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	tag, err := s.pool.Exec(ctx, `DELETE FROM logs WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune logs")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*DBStats, error) {
	stats := &DBStats{
		BySource: make(map[string]int),
		ByStatus: make(map[string]int),
	}

	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&stats.TotalCompanies)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count companies")
	}

	if err := s.groupCount(ctx, `SELECT source, COUNT(*) FROM companies GROUP BY source`, stats.BySource); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, `SELECT operating_status, COUNT(*) FROM companies WHERE operating_status != '' GROUP BY operating_status`, stats.ByStatus); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT province, COUNT(*) AS n FROM companies WHERE province != ''
		 GROUP BY province ORDER BY n DESC LIMIT 10`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: top provinces")
	}
	defer rows.Close()
	for rows.Next() {
		var pc ProvinceCount
		if err := rows.Scan(&pc.Province, &pc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan province count")
		}
		stats.TopProvinces = append(stats.TopProvinces, pc)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: iterate provinces")
}

func (s *PostgresStore) groupCount(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return eris.Wrap(err, "postgres: group count")
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return eris.Wrap(err, "postgres: scan group count")
		}
		into[key] = n
	}
	return eris.Wrap(rows.Err(), "postgres: iterate group count")
}
