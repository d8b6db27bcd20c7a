// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package history keeps an audit log of geocoding lookups in DuckDB. It is
// never read to answer a query.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver
	"github.com/jcodagnone/unigeo/geocoding"
	"github.com/uber/h3-go/v4"
)

// Resolutions of the H3 cells stored for every result.
var Resolutions = []int{5, 7, 9}

// Lookup is one call to a provider.
type Lookup struct {
	ID              int64     `json:"id"`
	Provider        string    `json:"provider"`
	Query           string    `json:"query"`
	NormalizedQuery string    `json:"normalized_query"`
	Language        string    `json:"language,omitempty"`
	Country         string    `json:"country,omitempty"`
	Limit           int       `json:"limit,omitempty"`
	ResultCount     int       `json:"result_count"`
	Duration        int64     `json:"duration_ms"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	Results         []*Result `json:"results,omitempty"`
}

// Result is one normalized match of a lookup.
type Result struct {
	LookupID int64                   `json:"lookup_id"`
	Position int                     `json:"position"`
	Result   geocoding.UnifiedResult `json:"result"`
	H3Res5   int64                   `json:"-"`
	H3Res7   int64                   `json:"-"`
	H3Res9   int64                   `json:"-"`
}

// NewLookup builds the record of a finished call. A failed call keeps the
// error message and no results.
func NewLookup(provider string, req *geocoding.Request, results []geocoding.UnifiedResult, err error, took time.Duration) *Lookup {
	l := &Lookup{
		Provider:        provider,
		Query:           req.Query,
		NormalizedQuery: NormalizeQuery(req.Query),
		Language:        req.Language,
		Country:         req.Country,
		Limit:           req.Limit,
		Duration:        took.Milliseconds(),
		CreatedAt:       time.Now(),
	}

	if err != nil {
		l.Error = err.Error()

		return l
	}

	l.ResultCount = len(results)
	for i, r := range results {
		l.Results = append(l.Results, &Result{Position: i, Result: r})
	}

	return l
}

func (r *Result) computeH3() error {
	r.H3Res5, r.H3Res7, r.H3Res9 = 0, 0, 0

	p, ok := r.Result.Point()
	if !ok || !p.Valid() {
		return nil
	}

	cells, err := p.Cells(Resolutions...)
	if err != nil {
		return err
	}

	r.H3Res5, r.H3Res7, r.H3Res9 = int64(cells[0]), int64(cells[1]), int64(cells[2])

	return nil
}

// Filter narrows ListLookups and CountLookups.
type Filter struct {
	Provider string
	// Query matches lookups whose normalized query contains it
	Query  string
	Limit  int
	Offset int
}

func (f Filter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.Provider != "" {
		conds = append(conds, "provider = ?")
		args = append(args, f.Provider)
	}

	if q := NormalizeQuery(f.Query); q != "" {
		conds = append(conds, "contains(normalized_query, ?)")
		args = append(args, q)
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// Repository persists lookups.
type Repository interface {
	// CreateSchema creates the lookups tables
	CreateSchema() error

	// SaveLookup inserts a lookup and its results, assigning its ID
	SaveLookup(ctx context.Context, lookup *Lookup) error

	// ListLookups returns lookups, newest first, with their results
	ListLookups(ctx context.Context, filter Filter) ([]*Lookup, error)

	// CountLookups returns the number of lookups matching filter
	CountLookups(ctx context.Context, filter Filter) (int, error)

	// ResultsInCell returns stored results inside an H3 cell
	ResultsInCell(ctx context.Context, cell h3.Cell) ([]*Result, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlRepository struct {
	db *sql.DB
}

// NewRepository creates a repository on a duckdb connection.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

// Open opens (or creates) the duckdb database at path and its schema. An
// empty path is an in-memory database.
func Open(path string) (Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening history %q: %w", path, err)
	}

	repo := NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return repo, nil
}

func (r *sqlRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS lookups_seq START 1;

		CREATE TABLE IF NOT EXISTS lookups (
			id BIGINT PRIMARY KEY DEFAULT nextval('lookups_seq'),
			provider VARCHAR NOT NULL,
			query VARCHAR NOT NULL,
			normalized_query VARCHAR NOT NULL,
			language VARCHAR,
			country VARCHAR,
			result_limit INTEGER,
			result_count INTEGER NOT NULL,
			duration_ms BIGINT NOT NULL,
			error VARCHAR,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS lookup_results (
			lookup_id BIGINT NOT NULL,
			result_index INTEGER NOT NULL,
			formatted_address VARCHAR,
			latitude DOUBLE,
			longitude DOUBLE,
			confidence DOUBLE,
			result VARCHAR NOT NULL,
			h3_res5 UBIGINT,
			h3_res7 UBIGINT,
			h3_res9 UBIGINT,
			PRIMARY KEY (lookup_id, result_index)
		);
	`)

	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func (r *sqlRepository) SaveLookup(ctx context.Context, lookup *Lookup) error {
	if lookup.Provider == "" || lookup.Query == "" {
		return errors.New("lookup needs a provider and a query")
	}

	if lookup.CreatedAt.IsZero() {
		lookup.CreatedAt = time.Now()
	}

	if lookup.NormalizedQuery == "" {
		lookup.NormalizedQuery = NormalizeQuery(lookup.Query)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	var limit *int
	if lookup.Limit > 0 {
		limit = &lookup.Limit
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO lookups(
			provider,
			query,
			normalized_query,
			language,
			country,
			result_limit,
			result_count,
			duration_ms,
			error,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		lookup.Provider,
		lookup.Query,
		lookup.NormalizedQuery,
		nullable(lookup.Language),
		nullable(lookup.Country),
		limit,
		lookup.ResultCount,
		lookup.Duration,
		nullable(lookup.Error),
		lookup.CreatedAt,
	).Scan(&lookup.ID)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = errors.Join(err, rErr)
		}

		return fmt.Errorf("inserting lookup: %w", err)
	}

	if err = r.insertResults(ctx, tx, lookup); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = errors.Join(err, rErr)
		}

		return err
	}

	return tx.Commit()
}

func (r *sqlRepository) insertResults(ctx context.Context, tx *sql.Tx, lookup *Lookup) error {
	if len(lookup.Results) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lookup_results(
			lookup_id,
			result_index,
			formatted_address,
			latitude,
			longitude,
			confidence,
			result,
			h3_res5,
			h3_res7,
			h3_res9
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, res := range lookup.Results {
		res.LookupID = lookup.ID

		if err := res.computeH3(); err != nil {
			return err
		}

		data, err := json.Marshal(res.Result)
		if err != nil {
			return fmt.Errorf("encoding result %d: %w", res.Position, err)
		}

		var confidence *float64
		if _, ok := res.Result.Extra[geocoding.ExtraConfidence]; ok {
			c := res.Result.Extra.Confidence()
			confidence = &c
		}

		var h3Res5, h3Res7, h3Res9 *int64
		if res.H3Res5 != 0 {
			h3Res5, h3Res7, h3Res9 = &res.H3Res5, &res.H3Res7, &res.H3Res9
		}

		_, err = stmt.ExecContext(ctx,
			lookup.ID,
			res.Position,
			nullable(res.Result.FormattedAddress),
			res.Result.Latitude,
			res.Result.Longitude,
			confidence,
			string(data),
			h3Res5,
			h3Res7,
			h3Res9,
		)
		if err != nil {
			return fmt.Errorf("inserting result %d: %w", res.Position, err)
		}
	}

	return nil
}

func (r *sqlRepository) ListLookups(ctx context.Context, filter Filter) ([]*Lookup, error) {
	where, args := filter.where()

	query := `
		SELECT id, provider, query, normalized_query, language, country,
		       result_limit, result_count, duration_ms, error, created_at
		FROM lookups` + where + `
		ORDER BY created_at DESC, id DESC`

	if filter.Limit > 0 {
		query += " LIMIT ?"

		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		query += " OFFSET ?"

		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lookups []*Lookup

	for rows.Next() {
		var (
			l                      Lookup
			language, country, msg sql.NullString
			limit                  sql.NullInt64
		)

		err := rows.Scan(
			&l.ID,
			&l.Provider,
			&l.Query,
			&l.NormalizedQuery,
			&language,
			&country,
			&limit,
			&l.ResultCount,
			&l.Duration,
			&msg,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		l.Language = language.String
		l.Country = country.String
		l.Error = msg.String
		l.Limit = int(limit.Int64)

		lookups = append(lookups, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, l := range lookups {
		if l.Results, err = r.results(ctx, "lookup_id = ?", l.ID); err != nil {
			return nil, err
		}
	}

	return lookups, nil
}

func (r *sqlRepository) results(ctx context.Context, cond string, arg any) ([]*Result, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT lookup_id, result_index, result, h3_res5, h3_res7, h3_res9
		FROM lookup_results
		WHERE `+cond+`
		ORDER BY lookup_id, result_index`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Result

	for rows.Next() {
		var (
			res                    Result
			data                   string
			h3Res5, h3Res7, h3Res9 sql.NullInt64
		)

		if err := rows.Scan(&res.LookupID, &res.Position, &data, &h3Res5, &h3Res7, &h3Res9); err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(data), &res.Result); err != nil {
			return nil, fmt.Errorf("decoding result %d/%d: %w", res.LookupID, res.Position, err)
		}

		res.H3Res5 = h3Res5.Int64
		res.H3Res7 = h3Res7.Int64
		res.H3Res9 = h3Res9.Int64

		results = append(results, &res)
	}

	return results, rows.Err()
}

func (r *sqlRepository) CountLookups(ctx context.Context, filter Filter) (int, error) {
	where, args := filter.where()

	var count int

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lookups"+where, args...).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *sqlRepository) ResultsInCell(ctx context.Context, cell h3.Cell) ([]*Result, error) {
	var column string

	switch cell.Resolution() {
	case 5:
		column = "h3_res5"
	case 7:
		column = "h3_res7"
	case 9:
		column = "h3_res9"
	default:
		return nil, fmt.Errorf("unsupported h3 resolution %d, want one of %v", cell.Resolution(), Resolutions)
	}

	return r.results(ctx, column+" = ?", int64(cell))
}
