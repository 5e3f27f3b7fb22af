package bonds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "bondscalc/internal/domain/entity/bonds"
	"bondscalc/internal/infrastructure/bonds/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const DefaultSearchLimit = 100

var ErrBondNotFound = domain.ErrNotFound

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS moex_bonds_shortname_lc_idx ON moex_bonds (shortname_lc)`,
	`CREATE INDEX IF NOT EXISTS moex_bonds_isin_idx ON moex_bonds (isin)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS moex_bonds_uid_idx ON moex_bonds (uid)`,
}

type Repository struct {
	pool    *pgxpool.Pool
	table   string
	columns []string
}

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	columns, err := models.BondColumns()
	if err != nil {
		return nil, err
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return &Repository{
		pool:    pool,
		table:   models.BondModel{}.TableName(),
		columns: columns,
	}, nil
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

// EnsureSchema creates the catalog table and its indexes.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl, err := models.BondTableDDL()
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", r.table, err)
	}
	for _, stmt := range indexStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// ReplaceAll swaps the whole catalog for items in a single transaction.
func (r *Repository) ReplaceAll(ctx context.Context, items []domain.Bond) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(items))
	for _, b := range items {
		rows = append(rows, models.FromDomain(b, now).Values())
	}
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM "+r.table); err != nil {
			return fmt.Errorf("clear %s: %w", r.table, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{r.table}, r.columns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy %s: %w", r.table, err)
		}
		return nil
	})
}

// UpsertBonds inserts or refreshes items keyed by SECID.
func (r *Repository) UpsertBonds(ctx context.Context, items []domain.Bond) error {
	if len(items) == 0 {
		return nil
	}
	query := upsertQuery(r.table, r.columns)
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, b := range items {
		batch.Queue(query, models.FromDomain(b, now).Values()...)
	}
	return execBatch(ctx, r.pool, batch)
}

// Search matches the lower-cased short name or ISIN by substring, or the
// SECID exactly, ordered by name.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]domain.Bond, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	pattern := escapeLike(query)
	rows, err := r.pool.Query(ctx, searchQuery(r.table, r.columns),
		"%"+strings.ToLower(pattern)+"%",
		"%"+strings.ToUpper(pattern)+"%",
		query,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search bonds: %w", err)
	}
	defer rows.Close()

	var result []domain.Bond
	for rows.Next() {
		var m models.BondModel
		if err := rows.Scan(m.ScanTargets()...); err != nil {
			return nil, err
		}
		result = append(result, m.ToDomain())
	}
	return result, rows.Err()
}

func (r *Repository) GetBySecID(ctx context.Context, secID string) (*domain.Bond, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE secid = $1`, strings.Join(r.columns, ", "), r.table)
	var m models.BondModel
	if err := r.pool.QueryRow(ctx, query, secID).Scan(m.ScanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBondNotFound
		}
		return nil, err
	}
	b := m.ToDomain()
	return &b, nil
}

func (r *Repository) withTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func execBatch(ctx context.Context, pool *pgxpool.Pool, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	results := pool.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}

func searchQuery(table string, columns []string) string {
	return fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE (shortname_lc LIKE $1 ESCAPE '\' OR isin LIKE $2 ESCAPE '\' OR secid = $3)
		ORDER BY shortname_lc
		LIMIT $4`, strings.Join(columns, ", "), table)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func upsertQuery(table string, columns []string) string {
	placeholders := make([]string, len(columns))
	updates := make([]string, 0, len(columns))
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col == "secid" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		ON CONFLICT (secid) DO UPDATE
		SET %s`,
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ","),
		strings.Join(updates, ",\n\t\t    "),
	)
}
