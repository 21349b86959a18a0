package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/vnreg-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	created_at            DATETIME NOT NULL,
	updated_at            DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS logs (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	ts      DATETIME NOT NULL,
	level   TEXT NOT NULL,
	message TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(operating_status);
CREATE INDEX IF NOT EXISTS idx_companies_business_line ON companies(main_business_line);
CREATE INDEX IF NOT EXISTS idx_companies_province ON companies(province);
CREATE INDEX IF NOT EXISTS idx_companies_source ON companies(source);
CREATE INDEX IF NOT EXISTS idx_logs_ts ON logs(ts);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const companyColumns = `tax_code, name, trade_name, english_name, representative, representative_title,
	phone, fax, email, website, registered_address, province, district, ward,
	main_business_line, other_business_lines, entity_type, operating_status,
	license_number, license_date, operation_date, last_change_date,
	issuing_authority, decision_number, charter_capital, registered_capital,
	legal_representative, secondary_phone, tax_address, secondary_status,
	secondary_last_update, source, raw_primary, raw_secondary, created_at, updated_at`

func (s *SQLiteStore) Exists(ctx context.Context, taxCode string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM companies WHERE tax_code = ?`, taxCode,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: exists %s", taxCode)
	}
	return true, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, c *model.Company) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	lines, err := json.Marshal(c.OtherBusinessLines)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal business lines")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO companies (`+companyColumns+`) VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		 ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
		return eris.Wrapf(err, "sqlite: insert company %s", c.TaxCode)
	}
	return nil
}

// Update rewrites every field except the key and created_at. The source tag
// never regresses: an api-only refresh of a dual row keeps dual.
func (s *SQLiteStore) Update(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()

	lines, err := json.Marshal(c.OtherBusinessLines)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal business lines")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET
			name = ?, trade_name = ?, english_name = ?, representative = ?, representative_title = ?,
			phone = ?, fax = ?, email = ?, website = ?, registered_address = ?, province = ?,
			district = ?, ward = ?, main_business_line = ?, other_business_lines = ?,
			entity_type = ?, operating_status = ?, license_number = ?, license_date = ?,
			operation_date = ?, last_change_date = ?, issuing_authority = ?, decision_number = ?,
			charter_capital = ?, registered_capital = ?, legal_representative = ?,
			secondary_phone = ?, tax_address = ?, secondary_status = ?, secondary_last_update = ?,
			source = CASE WHEN source = 'dual' AND ? = 'api' THEN source ELSE ? END,
			raw_primary = ?, raw_secondary = ?, updated_at = ?
		WHERE tax_code = ?`,
		c.Name, c.TradeName, c.EnglishName, c.Representative, c.RepresentativeTitle,
		c.Phone, c.Fax, c.Email, c.Website, c.RegisteredAddress, c.Province,
		c.District, c.Ward, c.MainBusinessLine, string(lines),
		c.EntityType, c.OperatingStatus, c.LicenseNumber, c.LicenseDate,
		c.OperationDate, c.LastChangeDate, c.IssuingAuthority, c.DecisionNumber,
		c.CharterCapital, c.RegisteredCapital, c.LegalRepresentative,
		c.SecondaryPhone, c.TaxAddress, c.SecondaryStatus, c.SecondaryLastUpdate,
		string(c.Source), string(c.Source),
		c.RawPrimary, c.RawSecondary, c.UpdatedAt,
		c.TaxCode,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %s", c.TaxCode)
	}
	return checkRowsAffected(res, "company", c.TaxCode)
}

func (s *SQLiteStore) Get(ctx context.Context, taxCode string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE tax_code = ?`, taxCode,
	)
	c, err := scanCompany(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", taxCode)
	}
	return c, nil
}

func (s *SQLiteStore) Query(ctx context.Context, f Filter) ([]model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND operating_status = ?`
		args = append(args, f.Status)
	}
	if f.BusinessLine != "" {
		query += ` AND main_business_line LIKE ?`
		args = append(args, "%"+f.BusinessLine+"%")
	}
	if f.Province != "" {
		query += ` AND province LIKE ?`
		args = append(args, "%"+f.Province+"%")
	}
	if f.Source != "" {
		query += ` AND source = ?`
		args = append(args, f.Source)
	}
	query += ` ORDER BY updated_at DESC`

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate companies")
}

func (s *SQLiteStore) LogMessage(ctx context.Context, level, message string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (ts, level, message) VALUES (?, ?, ?)`,
		time.Now().UTC(), level, message,
	)
	return eris.Wrap(err, "sqlite: insert log")
}

func (s *SQLiteStore) PruneLogs(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := s.db.ExecContext(ctx, `DELETE FROM logs WHERE ts < ?`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune logs")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune logs rows affected")
	}
	return n, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*DBStats, error) {
	stats := &DBStats{
		BySource: make(map[string]int),
		ByStatus: make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&stats.TotalCompanies)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count companies")
	}

	if err := s.groupCount(ctx, `SELECT source, COUNT(*) FROM companies GROUP BY source`, stats.BySource); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, `SELECT operating_status, COUNT(*) FROM companies WHERE operating_status != '' GROUP BY operating_status`, stats.ByStatus); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT province, COUNT(*) AS n FROM companies WHERE province != ''
		 GROUP BY province ORDER BY n DESC LIMIT 10`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top provinces")
	}
	defer rows.Close()
	for rows.Next() {
		var pc ProvinceCount
		if err := rows.Scan(&pc.Province, &pc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan province count")
		}
		stats.TopProvinces = append(stats.TopProvinces, pc)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: iterate provinces")
}

func (s *SQLiteStore) groupCount(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return eris.Wrap(err, "sqlite: group count")
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return eris.Wrap(err, "sqlite: scan group count")
		}
		into[key] = n
	}
	return eris.Wrap(rows.Err(), "sqlite: iterate group count")
}

// scannable abstracts sql.Row and sql.Rows for the shared scan helper.
type scannable interface {
	Scan(dest ...any) error
}

func scanCompany(row scannable) (*model.Company, error) {
	var c model.Company
	var lines, source string

	err := row.Scan(
		&c.TaxCode, &c.Name, &c.TradeName, &c.EnglishName, &c.Representative, &c.RepresentativeTitle,
		&c.Phone, &c.Fax, &c.Email, &c.Website, &c.RegisteredAddress, &c.Province, &c.District, &c.Ward,
		&c.MainBusinessLine, &lines, &c.EntityType, &c.OperatingStatus,
		&c.LicenseNumber, &c.LicenseDate, &c.OperationDate, &c.LastChangeDate,
		&c.IssuingAuthority, &c.DecisionNumber, &c.CharterCapital, &c.RegisteredCapital,
		&c.LegalRepresentative, &c.SecondaryPhone, &c.TaxAddress, &c.SecondaryStatus,
		&c.SecondaryLastUpdate, &source, &c.RawPrimary, &c.RawSecondary,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Source = model.Source(source)
	if lines != "" && lines != "null" {
		if err := json.Unmarshal([]byte(lines), &c.OtherBusinessLines); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal business lines")
		}
	}
	return &c, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "store: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("store: %s %s not found", entity, id)
	}
	return nil
}
