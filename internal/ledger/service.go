package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	GetTransaction(ctx context.Context, id int64) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	ListActive(ctx context.Context, portfolioID uuid.UUID, instrument string) ([]*Transaction, error)
	ActiveInstruments(ctx context.Context, portfolioID uuid.UUID) ([]string, error)

	BeginWrite(ctx context.Context, portfolioID uuid.UUID, instruments []string) (WriteTx, error)
	BeginCorrection(ctx context.Context, portfolioID uuid.UUID, instrument string) (CorrectionTx, error)
}

// WriteTx is a database transaction holding the advisory locks for the
// (portfolio, instrument) keys it was opened with. All plain ledger mutations
// go through it so the consistency check and the write are one atomic unit.
type WriteTx interface {
	ListActive(ctx context.Context, instrument string) ([]*Transaction, error)
	Insert(ctx context.Context, txs ...*Transaction) error
	Update(ctx context.Context, tx *Transaction) error
	Delete(ctx context.Context, id int64) error
	Commit() error
	Rollback() error
}

// CorrectionTx is a database transaction holding the advisory lock for one
// (portfolio, instrument) key, scoped to corporate-action application and
// reversal. Deactivate records causeID on every row it flips so ReactivateBy
// can restore exactly that set. ListActive sees the transaction's own writes,
// so a reversal can replay the history it is about to commit.
type CorrectionTx interface {
	ListActiveThrough(ctx context.Context, effectiveDate time.Time) ([]*Transaction, error)
	ListActive(ctx context.Context) ([]*Transaction, error)
	Insert(ctx context.Context, tx *Transaction) error
	Deactivate(ctx context.Context, ids []int64, causeID int64) (int64, error)
	ReactivateBy(ctx context.Context, causeID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	PortfolioID uuid.UUID
	Instrument  string
	Kind        Kind
	AssetClass  AssetClass
	Price       float64
	Quantity    float64
	OccurredOn  time.Time
}

type UpdateParams struct {
	Instrument *string
	Kind       *Kind
	Price      *float64
	Quantity   *float64
	OccurredOn *time.Time
}

type ListFilter struct {
	PortfolioID uuid.UUID
	Instrument  *string
	Kind        *Kind
	ActiveOnly  bool
}

func (p CreateParams) validate() error {
	if p.Instrument == "" {
		return fmt.Errorf("instrument is required: %w", ErrValidation)
	}

	if !p.Kind.valid() {
		return fmt.Errorf("unknown kind %q: %w", p.Kind, ErrValidation)
	}

	if !p.AssetClass.valid() {
		return fmt.Errorf("unknown asset class %q: %w", p.AssetClass, ErrValidation)
	}

	if p.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive: %w", ErrValidation)
	}

	if p.Price <= 0 {
		return fmt.Errorf("price must be positive: %w", ErrValidation)
	}

	return nil
}

// Append validates and persists one user-entered BUY or SELL row. The
// prospective active set is replayed inside the write transaction so a sell
// that would exceed the held quantity is rejected before commit.
func (s *Service) Append(ctx context.Context, params CreateParams) (*Transaction, error) {
	params.Instrument = NormalizeInstrument(params.Instrument)

	if err := params.validate(); err != nil {
		return nil, err
	}

	if params.Kind.IsCorporate() {
		return nil, fmt.Errorf("corporate-action rows are created by applying a correction: %w", ErrValidation)
	}

	txs, err := s.AppendBatch(ctx, params.PortfolioID, []CreateParams{params})
	if err != nil {
		return nil, err
	}

	return txs[0], nil
}

// AppendBatch persists several rows for one portfolio as a single unit,
// locking every instrument involved. Used by Append and by CSV import.
func (s *Service) AppendBatch(ctx context.Context, portfolioID uuid.UUID, params []CreateParams) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	instruments := make([]string, 0, len(params))
	seen := make(map[string]struct{}, len(params))

	for i := range params {
		params[i].Instrument = NormalizeInstrument(params[i].Instrument)
		params[i].PortfolioID = portfolioID

		if err := params[i].validate(); err != nil {
			return nil, err
		}

		if params[i].Kind.IsCorporate() {
			return nil, fmt.Errorf("corporate-action rows are created by applying a correction: %w", ErrValidation)
		}

		if _, ok := seen[params[i].Instrument]; !ok {
			seen[params[i].Instrument] = struct{}{}
			instruments = append(instruments, params[i].Instrument)
		}
	}

	wtx, err := s.repo.BeginWrite(ctx, portfolioID, instruments)
	if err != nil {
		return nil, fmt.Errorf("begin write: %w", err)
	}
	defer wtx.Rollback()

	// Replay each affected instrument with the incoming rows merged in,
	// before anything is written.
	for _, instrument := range instruments {
		active, err := wtx.ListActive(ctx, instrument)
		if err != nil {
			return nil, fmt.Errorf("list active %s: %w", instrument, err)
		}

		merged := active
		for i := range params {
			if params[i].Instrument == instrument {
				merged = appendOrdered(merged, paramsToTransaction(params[i]))
			}
		}

		if _, err := Replay(merged); err != nil {
			return nil, err
		}
	}

	txs := make([]*Transaction, len(params))
	for i := range params {
		txs[i] = paramsToTransaction(params[i])
	}

	if err := wtx.Insert(ctx, txs...); err != nil {
		return nil, fmt.Errorf("insert transactions: %w", err)
	}

	if err := wtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return txs, nil
}

func (s *Service) Get(ctx context.Context, portfolioID uuid.UUID, id int64) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if tx.PortfolioID != portfolioID {
		return nil, ErrNotFound
	}

	return tx, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	if filter.Instrument != nil {
		normalized := NormalizeInstrument(*filter.Instrument)
		filter.Instrument = &normalized
	}

	return s.repo.ListTransactions(ctx, filter)
}

// ListActive returns the active rows for one instrument ordered ascending by
// (occurred_on, id) — the replay order.
func (s *Service) ListActive(ctx context.Context, portfolioID uuid.UUID, instrument string) ([]*Transaction, error) {
	return s.repo.ListActive(ctx, portfolioID, NormalizeInstrument(instrument))
}

// ActiveInstruments returns the distinct instruments with at least one active
// row in the portfolio.
func (s *Service) ActiveInstruments(ctx context.Context, portfolioID uuid.UUID) ([]string, error) {
	return s.repo.ActiveInstruments(ctx, portfolioID)
}

// Position replays the instrument's active rows into (quantity, average cost).
func (s *Service) Position(ctx context.Context, portfolioID uuid.UUID, instrument string) (Position, error) {
	txs, err := s.ListActive(ctx, portfolioID, instrument)
	if err != nil {
		return Position{}, err
	}

	return Replay(txs)
}

// Update edits a BUY or SELL row. Corporate-action rows are never mutated in
// place. The rewritten history is replayed before the update commits.
func (s *Service) Update(ctx context.Context, portfolioID uuid.UUID, id int64, params UpdateParams) (*Transaction, error) {
	tx, err := s.Get(ctx, portfolioID, id)
	if err != nil {
		return nil, err
	}

	if tx.Kind.IsCorporate() {
		return nil, fmt.Errorf("corporate-action rows cannot be edited: %w", ErrValidation)
	}

	// Rows collapsed by a standing correction form its restoration set;
	// editing one would let it drift out of that set.
	if tx.CorrectionID != nil {
		return nil, fmt.Errorf("row %d is superseded by correction %d: %w", id, *tx.CorrectionID, ErrValidation)
	}

	updated := *tx
	if params.Instrument != nil {
		updated.Instrument = NormalizeInstrument(*params.Instrument)
	}

	if params.Kind != nil {
		updated.Kind = *params.Kind
	}

	if params.Price != nil {
		updated.Price = *params.Price
	}

	if params.Quantity != nil {
		updated.Quantity = *params.Quantity
	}

	if params.OccurredOn != nil {
		updated.OccurredOn = *params.OccurredOn
	}

	check := CreateParams{
		PortfolioID: updated.PortfolioID,
		Instrument:  updated.Instrument,
		Kind:        updated.Kind,
		AssetClass:  updated.AssetClass,
		Price:       updated.Price,
		Quantity:    updated.Quantity,
		OccurredOn:  updated.OccurredOn,
	}
	if err := check.validate(); err != nil {
		return nil, err
	}

	if updated.Kind.IsCorporate() {
		return nil, fmt.Errorf("cannot turn a trade into a corporate-action row: %w", ErrValidation)
	}

	instruments := []string{tx.Instrument}
	if updated.Instrument != tx.Instrument {
		instruments = append(instruments, updated.Instrument)
	}

	wtx, err := s.repo.BeginWrite(ctx, portfolioID, instruments)
	if err != nil {
		return nil, fmt.Errorf("begin write: %w", err)
	}
	defer wtx.Rollback()

	for _, instrument := range instruments {
		active, err := wtx.ListActive(ctx, instrument)
		if err != nil {
			return nil, fmt.Errorf("list active %s: %w", instrument, err)
		}

		rewritten := make([]*Transaction, 0, len(active)+1)
		for _, a := range active {
			if a.ID == tx.ID {
				continue
			}

			rewritten = append(rewritten, a)
		}

		if updated.Instrument == instrument && updated.Active {
			rewritten = appendOrdered(rewritten, &updated)
		}

		if _, err := Replay(rewritten); err != nil {
			return nil, err
		}
	}

	if err := wtx.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	if err := wtx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &updated, nil
}

// Delete removes a BUY or SELL row without any cascade. Corporate-action rows
// must be deleted through reversal so their deactivated set is restored.
// Removing a buy that later sells depend on is rejected.
func (s *Service) Delete(ctx context.Context, portfolioID uuid.UUID, id int64) error {
	tx, err := s.Get(ctx, portfolioID, id)
	if err != nil {
		return err
	}

	if tx.Kind.IsCorporate() {
		return fmt.Errorf("corporate-action rows are removed by reversing the correction: %w", ErrValidation)
	}

	if tx.CorrectionID != nil {
		return fmt.Errorf("row %d is superseded by correction %d: %w", id, *tx.CorrectionID, ErrValidation)
	}

	wtx, err := s.repo.BeginWrite(ctx, portfolioID, []string{tx.Instrument})
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	defer wtx.Rollback()

	if tx.Active {
		active, err := wtx.ListActive(ctx, tx.Instrument)
		if err != nil {
			return fmt.Errorf("list active %s: %w", tx.Instrument, err)
		}

		remaining := make([]*Transaction, 0, len(active))
		for _, a := range active {
			if a.ID != tx.ID {
				remaining = append(remaining, a)
			}
		}

		if _, err := Replay(remaining); err != nil {
			return err
		}
	}

	if err := wtx.Delete(ctx, tx.ID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := wtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func paramsToTransaction(p CreateParams) *Transaction {
	return &Transaction{
		PortfolioID: p.PortfolioID,
		Instrument:  p.Instrument,
		Kind:        p.Kind,
		AssetClass:  p.AssetClass,
		Price:       p.Price,
		Quantity:    p.Quantity,
		OccurredOn:  p.OccurredOn,
		Active:      true,
	}
}

// appendOrdered inserts tx into an (occurred_on, id)-ordered slice, keeping
// the order. Unsaved rows (id 0) sort after persisted rows of the same day.
func appendOrdered(txs []*Transaction, tx *Transaction) []*Transaction {
	out := make([]*Transaction, 0, len(txs)+1)

	inserted := false
	for _, t := range txs {
		if !inserted && t.OccurredOn.After(tx.OccurredOn) {
			out = append(out, tx)
			inserted = true
		}

		out = append(out, t)
	}

	if !inserted {
		out = append(out, tx)
	}

	return out
}
