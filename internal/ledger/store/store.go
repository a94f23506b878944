package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectColumns = `
	id, portfolio_id, instrument, kind, asset_class, price, quantity,
	occurred_on, active, correction_id, created_at, updated_at
`

// scanTransaction reads one ledger row. Expected column order matches
// selectColumns.
func scanTransaction(s scanner) (*ledger.Transaction, error) {
	var tx ledger.Transaction

	var kindStr, classStr string

	var correctionID sql.NullInt64

	if err := s.Scan(
		&tx.ID, &tx.PortfolioID, &tx.Instrument, &kindStr, &classStr,
		&tx.Price, &tx.Quantity, &tx.OccurredOn, &tx.Active,
		&correctionID, &tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Kind = ledger.Kind(kindStr)
	tx.AssetClass = ledger.AssetClass(classStr)

	if correctionID.Valid {
		tx.CorrectionID = &correctionID.Int64
	}

	return &tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (*ledger.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE portfolio_id = $1`
	args := []any{filter.PortfolioID}
	argIdx := 2

	if filter.Instrument != nil {
		query += fmt.Sprintf(" AND instrument = $%d", argIdx)

		args = append(args, *filter.Instrument)
		argIdx++
	}

	if filter.Kind != nil {
		query += fmt.Sprintf(" AND kind = $%d", argIdx)

		args = append(args, *filter.Kind)
		argIdx++
	}

	if filter.ActiveOnly {
		query += " AND active"
	}

	query += " ORDER BY occurred_on DESC, id DESC"

	return s.queryTransactions(ctx, query, args...)
}

func (s *Store) ListActive(ctx context.Context, portfolioID uuid.UUID, instrument string) ([]*ledger.Transaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM transactions
		WHERE portfolio_id = $1 AND instrument = $2 AND active
		ORDER BY occurred_on ASC, id ASC`

	return s.queryTransactions(ctx, query, portfolioID, instrument)
}

func (s *Store) ActiveInstruments(ctx context.Context, portfolioID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT instrument
		FROM transactions
		WHERE portfolio_id = $1 AND active
		ORDER BY instrument ASC`

	rows, err := s.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("listing instruments: %w", err)
	}
	defer rows.Close()

	var instruments []string

	for rows.Next() {
		var instrument string
		if err := rows.Scan(&instrument); err != nil {
			return nil, fmt.Errorf("scanning instrument: %w", err)
		}

		instruments = append(instruments, instrument)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating instruments: %w", err)
	}

	return instruments, nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]*ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*ledger.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

// lockKey derives the advisory lock key for one (portfolio, instrument) pair.
func lockKey(portfolioID uuid.UUID, instrument string) int64 {
	h := fnv.New64a()
	h.Write([]byte(portfolioID.String()))
	h.Write([]byte{0})
	h.Write([]byte(instrument))

	return int64(h.Sum64())
}

// acquireLocks takes the advisory locks for every instrument, in sorted order
// so concurrent batches touching the same keys cannot deadlock.
func acquireLocks(ctx context.Context, tx *sql.Tx, portfolioID uuid.UUID, instruments []string) error {
	sorted := make([]string, len(instruments))
	copy(sorted, instruments)
	sort.Strings(sorted)

	for _, instrument := range sorted {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey(portfolioID, instrument)); err != nil {
			return fmt.Errorf("acquiring lock for %s: %w", instrument, err)
		}
	}

	return nil
}

type writeTx struct {
	tx          *sql.Tx
	portfolioID uuid.UUID
}

func (s *Store) BeginWrite(ctx context.Context, portfolioID uuid.UUID, instruments []string) (ledger.WriteTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning write tx: %w", err)
	}

	if err := acquireLocks(ctx, dbTx, portfolioID, instruments); err != nil {
		dbTx.Rollback()
		return nil, err
	}

	return &writeTx{tx: dbTx, portfolioID: portfolioID}, nil
}

func (w *writeTx) Commit() error   { return w.tx.Commit() }
func (w *writeTx) Rollback() error { return w.tx.Rollback() }

func (w *writeTx) ListActive(ctx context.Context, instrument string) ([]*ledger.Transaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM transactions
		WHERE portfolio_id = $1 AND instrument = $2 AND active
		ORDER BY occurred_on ASC, id ASC`

	rows, err := w.tx.QueryContext(ctx, query, w.portfolioID, instrument)
	if err != nil {
		return nil, fmt.Errorf("listing active: %w", err)
	}
	defer rows.Close()

	var txs []*ledger.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return txs, nil
}

const insertQuery = `
	INSERT INTO transactions (portfolio_id, instrument, kind, asset_class, price, quantity, occurred_on, active, correction_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	RETURNING id, created_at
`

func insertTransaction(ctx context.Context, tx *sql.Tx, t *ledger.Transaction) error {
	var correctionID sql.NullInt64
	if t.CorrectionID != nil {
		correctionID = sql.NullInt64{Int64: *t.CorrectionID, Valid: true}
	}

	return tx.QueryRowContext(ctx, insertQuery,
		t.PortfolioID,
		t.Instrument,
		t.Kind,
		t.AssetClass,
		t.Price,
		t.Quantity,
		t.OccurredOn,
		t.Active,
		correctionID,
	).Scan(&t.ID, &t.CreatedAt)
}

func (w *writeTx) Insert(ctx context.Context, txs ...*ledger.Transaction) error {
	for _, t := range txs {
		if err := insertTransaction(ctx, w.tx, t); err != nil {
			return fmt.Errorf("inserting transaction: %w", err)
		}
	}

	return nil
}

func (w *writeTx) Update(ctx context.Context, t *ledger.Transaction) error {
	query := `
		UPDATE transactions
		SET instrument = $1, kind = $2, price = $3, quantity = $4, occurred_on = $5, updated_at = NOW()
		WHERE id = $6
	`

	if _, err := w.tx.ExecContext(ctx, query,
		t.Instrument,
		t.Kind,
		t.Price,
		t.Quantity,
		t.OccurredOn,
		t.ID,
	); err != nil {
		return fmt.Errorf("updating transaction: %w", err)
	}

	return nil
}

func (w *writeTx) Delete(ctx context.Context, id int64) error {
	if _, err := w.tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = $1", id); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	return nil
}

type correctionTx struct {
	tx          *sql.Tx
	portfolioID uuid.UUID
	instrument  string
}

func (s *Store) BeginCorrection(ctx context.Context, portfolioID uuid.UUID, instrument string) (ledger.CorrectionTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning correction tx: %w", err)
	}

	if err := acquireLocks(ctx, dbTx, portfolioID, []string{instrument}); err != nil {
		dbTx.Rollback()
		return nil, err
	}

	return &correctionTx{tx: dbTx, portfolioID: portfolioID, instrument: instrument}, nil
}

func (c *correctionTx) Commit() error   { return c.tx.Commit() }
func (c *correctionTx) Rollback() error { return c.tx.Rollback() }

func (c *correctionTx) ListActiveThrough(ctx context.Context, effectiveDate time.Time) ([]*ledger.Transaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM transactions
		WHERE portfolio_id = $1 AND instrument = $2 AND active AND occurred_on <= $3
		ORDER BY occurred_on ASC, id ASC`

	rows, err := c.tx.QueryContext(ctx, query, c.portfolioID, c.instrument, effectiveDate)
	if err != nil {
		return nil, fmt.Errorf("listing active through %s: %w", effectiveDate.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var txs []*ledger.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return txs, nil
}

func (c *correctionTx) ListActive(ctx context.Context) ([]*ledger.Transaction, error) {
	query := `SELECT ` + selectColumns + `
		FROM transactions
		WHERE portfolio_id = $1 AND instrument = $2 AND active
		ORDER BY occurred_on ASC, id ASC`

	rows, err := c.tx.QueryContext(ctx, query, c.portfolioID, c.instrument)
	if err != nil {
		return nil, fmt.Errorf("listing active: %w", err)
	}
	defer rows.Close()

	var txs []*ledger.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return txs, nil
}

func (c *correctionTx) Insert(ctx context.Context, t *ledger.Transaction) error {
	if err := insertTransaction(ctx, c.tx, t); err != nil {
		return fmt.Errorf("inserting correction row: %w", err)
	}

	return nil
}

func (c *correctionTx) Deactivate(ctx context.Context, ids []int64, causeID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := []any{causeID}

	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		UPDATE transactions
		SET active = FALSE, correction_id = $1, updated_at = NOW()
		WHERE id IN (%s)`, strings.Join(placeholders, ", "))

	res, err := c.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deactivating transactions: %w", err)
	}

	return res.RowsAffected()
}

func (c *correctionTx) ReactivateBy(ctx context.Context, causeID int64) (int64, error) {
	query := `
		UPDATE transactions
		SET active = TRUE, correction_id = NULL, updated_at = NOW()
		WHERE portfolio_id = $1 AND instrument = $2 AND correction_id = $3
	`

	res, err := c.tx.ExecContext(ctx, query, c.portfolioID, c.instrument, causeID)
	if err != nil {
		return 0, fmt.Errorf("reactivating transactions: %w", err)
	}

	return res.RowsAffected()
}

func (c *correctionTx) Delete(ctx context.Context, id int64) error {
	if _, err := c.tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = $1", id); err != nil {
		return fmt.Errorf("deleting correction row: %w", err)
	}

	return nil
}
