package corporate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/ledger"
)

// Ledger is the slice of the transaction store the correction engine needs.
//
//go:generate mockgen -source=service.go -destination=ledger_mock.go -package=corporate
type Ledger interface {
	GetTransaction(ctx context.Context, id int64) (*ledger.Transaction, error)
	BeginCorrection(ctx context.Context, portfolioID uuid.UUID, instrument string) (ledger.CorrectionTx, error)
}

type Service struct {
	repo Ledger
}

func NewService(repo Ledger) *Service {
	return &Service{repo: repo}
}

type ApplyParams struct {
	PortfolioID   uuid.UUID
	Instrument    string
	Kind          ledger.Kind // KindSplit or KindReverseSplit
	AssetClass    ledger.AssetClass
	EffectiveDate time.Time
	RatioBefore   int
	RatioAfter    int
}

func (p ApplyParams) validate() error {
	if p.RatioBefore <= 0 || p.RatioAfter <= 0 {
		return fmt.Errorf("ratio %d:%d: proportions must be positive: %w",
			p.RatioBefore, p.RatioAfter, ledger.ErrInvalidRatio)
	}

	switch p.Kind {
	case ledger.KindSplit:
		if p.RatioAfter <= p.RatioBefore {
			return fmt.Errorf("split %d:%d must increase quantity: %w",
				p.RatioBefore, p.RatioAfter, ledger.ErrInvalidRatio)
		}
	case ledger.KindReverseSplit:
		if p.RatioBefore <= p.RatioAfter {
			return fmt.Errorf("reverse split %d:%d must decrease quantity: %w",
				p.RatioBefore, p.RatioAfter, ledger.ErrInvalidRatio)
		}
	default:
		return fmt.Errorf("kind %q is not a corporate action: %w", p.Kind, ledger.ErrValidation)
	}

	return nil
}

// Apply rewrites the instrument's history for a split or reverse split: every
// active row dated on or before the effective date is deactivated and replaced
// by one synthetic row carrying the scaled net position. The deactivated rows
// record the synthetic row's id so Reverse can restore exactly that set.
//
// The whole step runs inside one CorrectionTx holding the (portfolio,
// instrument) advisory lock: it either completes in full or leaves the ledger
// untouched.
func (s *Service) Apply(ctx context.Context, params ApplyParams) (*ledger.Transaction, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	instrument := ledger.NormalizeInstrument(params.Instrument)
	if instrument == "" {
		return nil, fmt.Errorf("instrument is required: %w", ledger.ErrValidation)
	}

	ctx = context.WithoutCancel(ctx) // not cancellable mid-flight

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	ctor, err := s.repo.BeginCorrection(ctx, params.PortfolioID, instrument)
	if err != nil {
		return nil, fmt.Errorf("begin correction: %w", err)
	}
	defer ctor.Rollback()

	affected, err := ctor.ListActiveThrough(ctx, params.EffectiveDate)
	if err != nil {
		return nil, fmt.Errorf("list affected: %w", err)
	}

	if len(affected) == 0 {
		return nil, fmt.Errorf("%s has no activity on or before %s: %w",
			instrument, params.EffectiveDate.Format("2006-01-02"), ledger.ErrNoTransactions)
	}

	// Net replay of the affected history: sells are already netted out, so
	// the scaled quantity and the weighted price describe the position as it
	// stands, not the gross sum of buys.
	pos, err := ledger.Replay(affected)
	if err != nil {
		return nil, err
	}

	if !pos.Held() {
		return nil, fmt.Errorf("%s nets to zero before %s: %w",
			instrument, params.EffectiveDate.Format("2006-01-02"), ledger.ErrNoTransactions)
	}

	factor := float64(params.RatioAfter) / float64(params.RatioBefore)

	synthetic := &ledger.Transaction{
		PortfolioID: params.PortfolioID,
		Instrument:  instrument,
		Kind:        params.Kind,
		AssetClass:  params.AssetClass,
		Price:       pos.AvgCost / factor,
		Quantity:    math.Floor(pos.Quantity * factor),
		OccurredOn:  params.EffectiveDate,
		Active:      true,
	}

	if synthetic.Quantity <= 0 {
		return nil, fmt.Errorf("%s: ratio %d:%d collapses the position to zero units: %w",
			instrument, params.RatioBefore, params.RatioAfter, ledger.ErrInvalidRatio)
	}

	if err := ctor.Insert(ctx, synthetic); err != nil {
		return nil, fmt.Errorf("insert synthetic row: %w", err)
	}

	ids := make([]int64, len(affected))
	for i, tx := range affected {
		ids[i] = tx.ID
	}

	if _, err := ctor.Deactivate(ctx, ids, synthetic.ID); err != nil {
		return nil, fmt.Errorf("deactivate affected rows: %w", err)
	}

	if err := ctor.Commit(); err != nil {
		return nil, fmt.Errorf("commit correction: %w", err)
	}

	return synthetic, nil
}

// Reverse undoes exactly one corporate action: the rows it deactivated are
// reactivated and the synthetic row is deleted, atomically. Rows deactivated
// by an earlier, still-standing correction carry a different correction id
// and are never touched.
func (s *Service) Reverse(ctx context.Context, portfolioID uuid.UUID, id int64) error {
	target, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	if target.PortfolioID != portfolioID {
		return ledger.ErrNotFound
	}

	if !target.Kind.IsCorporate() {
		return fmt.Errorf("transaction %d is not a corporate action: %w", id, ledger.ErrValidation)
	}

	ctx = context.WithoutCancel(ctx)

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	ctor, err := s.repo.BeginCorrection(ctx, portfolioID, target.Instrument)
	if err != nil {
		return fmt.Errorf("begin correction: %w", err)
	}
	defer ctor.Rollback()

	if _, err := ctor.ReactivateBy(ctx, target.ID); err != nil {
		return fmt.Errorf("reactivate superseded rows: %w", err)
	}

	if err := ctor.Delete(ctx, target.ID); err != nil {
		return fmt.Errorf("delete corporate-action row: %w", err)
	}

	// Sells recorded against the corrected position may exceed what the
	// restored rows held. Replay the post-reversal history before commit so
	// such a reversal rolls back instead of stranding the instrument.
	restored, err := ctor.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list restored rows: %w", err)
	}

	if _, err := ledger.Replay(restored); err != nil {
		return fmt.Errorf("reversing correction %d: %w", id, err)
	}

	if err := ctor.Commit(); err != nil {
		return fmt.Errorf("commit reversal: %w", err)
	}

	return nil
}
