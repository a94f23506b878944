package corporate_test

import (
	"cmp"
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mtrindade/carteira/internal/corporate"
	"github.com/mtrindade/carteira/internal/ledger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fakeLedger is an in-memory ledger with working deactivation links, so the
// apply/reverse round-trips can assert on the resulting row set instead of on
// call sequences.
type fakeLedger struct {
	rows   map[int64]*ledger.Transaction
	nextID int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[int64]*ledger.Transaction)}
}

func (f *fakeLedger) seed(tx ledger.Transaction) *ledger.Transaction {
	f.nextID++
	tx.ID = f.nextID
	f.rows[tx.ID] = &tx

	return &tx
}

func (f *fakeLedger) GetTransaction(_ context.Context, id int64) (*ledger.Transaction, error) {
	tx, ok := f.rows[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	cp := *tx

	return &cp, nil
}

func (f *fakeLedger) BeginCorrection(_ context.Context, portfolioID uuid.UUID, instrument string) (ledger.CorrectionTx, error) {
	snapshot := make(map[int64]*ledger.Transaction, len(f.rows))
	for id, tx := range f.rows {
		cp := *tx
		snapshot[id] = &cp
	}

	return &fakeCorrectionTx{
		l:           f,
		portfolioID: portfolioID,
		instrument:  instrument,
		snapshot:    snapshot,
		snapNextID:  f.nextID,
	}, nil
}

type fakeCorrectionTx struct {
	l           *fakeLedger
	portfolioID uuid.UUID
	instrument  string

	snapshot   map[int64]*ledger.Transaction
	snapNextID int64
	committed  bool
}

func (t *fakeCorrectionTx) ListActiveThrough(_ context.Context, effectiveDate time.Time) ([]*ledger.Transaction, error) {
	var out []*ledger.Transaction

	for _, tx := range t.l.rows {
		if tx.PortfolioID == t.portfolioID && tx.Instrument == t.instrument &&
			tx.Active && !tx.OccurredOn.After(effectiveDate) {
			out = append(out, tx)
		}
	}

	slices.SortFunc(out, func(a, b *ledger.Transaction) int {
		if c := a.OccurredOn.Compare(b.OccurredOn); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	return out, nil
}

func (t *fakeCorrectionTx) ListActive(ctx context.Context) ([]*ledger.Transaction, error) {
	return t.ListActiveThrough(ctx, day(9999, 12, 31))
}

func (t *fakeCorrectionTx) Insert(_ context.Context, tx *ledger.Transaction) error {
	t.l.nextID++
	tx.ID = t.l.nextID

	cp := *tx
	t.l.rows[tx.ID] = &cp

	return nil
}

func (t *fakeCorrectionTx) Deactivate(_ context.Context, ids []int64, causeID int64) (int64, error) {
	var n int64

	for _, id := range ids {
		if tx, ok := t.l.rows[id]; ok && tx.Active {
			tx.Active = false
			cause := causeID
			tx.CorrectionID = &cause
			n++
		}
	}

	return n, nil
}

func (t *fakeCorrectionTx) ReactivateBy(_ context.Context, causeID int64) (int64, error) {
	var n int64

	for _, tx := range t.l.rows {
		if tx.CorrectionID != nil && *tx.CorrectionID == causeID {
			tx.Active = true
			tx.CorrectionID = nil
			n++
		}
	}

	return n, nil
}

func (t *fakeCorrectionTx) Delete(_ context.Context, id int64) error {
	delete(t.l.rows, id)
	return nil
}

func (t *fakeCorrectionTx) Commit() error {
	t.committed = true
	return nil
}

func (t *fakeCorrectionTx) Rollback() error {
	if !t.committed {
		t.l.rows = t.snapshot
		t.l.nextID = t.snapNextID
	}

	return nil
}

func TestService_Apply_RatioValidation(t *testing.T) {
	type testCase struct {
		name    string
		params  corporate.ApplyParams
		wantErr error
	}

	tests := []testCase{
		{
			name: "SplitMustIncrease",
			params: corporate.ApplyParams{
				Instrument: "PETR4", Kind: ledger.KindSplit, AssetClass: ledger.ClassEquity,
				EffectiveDate: day(2024, 6, 1), RatioBefore: 10, RatioAfter: 1,
			},
			wantErr: ledger.ErrInvalidRatio,
		},
		{
			name: "ReverseSplitMustDecrease",
			params: corporate.ApplyParams{
				Instrument: "PETR4", Kind: ledger.KindReverseSplit, AssetClass: ledger.ClassEquity,
				EffectiveDate: day(2024, 6, 1), RatioBefore: 1, RatioAfter: 10,
			},
			wantErr: ledger.ErrInvalidRatio,
		},
		{
			name: "OneToOne",
			params: corporate.ApplyParams{
				Instrument: "PETR4", Kind: ledger.KindSplit, AssetClass: ledger.ClassEquity,
				EffectiveDate: day(2024, 6, 1), RatioBefore: 1, RatioAfter: 1,
			},
			wantErr: ledger.ErrInvalidRatio,
		},
		{
			name: "ZeroRatio",
			params: corporate.ApplyParams{
				Instrument: "PETR4", Kind: ledger.KindSplit, AssetClass: ledger.ClassEquity,
				EffectiveDate: day(2024, 6, 1), RatioBefore: 0, RatioAfter: 10,
			},
			wantErr: ledger.ErrInvalidRatio,
		},
		{
			name: "NegativeRatio",
			params: corporate.ApplyParams{
				Instrument: "PETR4", Kind: ledger.KindReverseSplit, AssetClass: ledger.ClassEquity,
				EffectiveDate: day(2024, 6, 1), RatioBefore: -10, RatioAfter: -1,
			},
			wantErr: ledger.ErrInvalidRatio,
		},
		{
			name: "NonCorporateKind",
			params: corporate.ApplyParams{
				Instrument: "PETR4", Kind: ledger.KindBuy, AssetClass: ledger.ClassEquity,
				EffectiveDate: day(2024, 6, 1), RatioBefore: 1, RatioAfter: 10,
			},
			wantErr: ledger.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := corporate.NewMockLedger(ctrl)
			svc := corporate.NewService(repo)

			got, err := svc.Apply(context.Background(), tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

func TestService_Apply_Split(t *testing.T) {
	repo := newFakeLedger()
	svc := corporate.NewService(repo)

	portfolioID := uuid.New()
	buy1 := repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindBuy,
		AssetClass: ledger.ClassEquity, Price: 10, Quantity: 100,
		OccurredOn: day(2024, 1, 10), Active: true,
	})
	buy2 := repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindBuy,
		AssetClass: ledger.ClassEquity, Price: 12, Quantity: 100,
		OccurredOn: day(2024, 2, 10), Active: true,
	})
	later := repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindBuy,
		AssetClass: ledger.ClassEquity, Price: 1.50, Quantity: 500,
		OccurredOn: day(2024, 7, 1), Active: true,
	})

	// 1:10 split of 200 shares at average 11.00.
	synthetic, err := svc.Apply(context.Background(), corporate.ApplyParams{
		PortfolioID: portfolioID, Instrument: "petr4",
		Kind: ledger.KindSplit, AssetClass: ledger.ClassEquity,
		EffectiveDate: day(2024, 6, 1), RatioBefore: 1, RatioAfter: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.KindSplit, synthetic.Kind)
	assert.InDelta(t, 2000, synthetic.Quantity, 1e-9)
	assert.InDelta(t, 1.10, synthetic.Price, 1e-9)
	assert.Equal(t, day(2024, 6, 1), synthetic.OccurredOn)
	assert.True(t, synthetic.Active)

	for _, id := range []int64{buy1.ID, buy2.ID} {
		row := repo.rows[id]
		assert.False(t, row.Active)
		require.NotNil(t, row.CorrectionID)
		assert.Equal(t, synthetic.ID, *row.CorrectionID)
	}

	// Rows after the effective date are untouched.
	assert.True(t, repo.rows[later.ID].Active)
	assert.Nil(t, repo.rows[later.ID].CorrectionID)
}

func TestService_Apply_NetsOutSells(t *testing.T) {
	repo := newFakeLedger()
	svc := corporate.NewService(repo)

	portfolioID := uuid.New()
	repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "VALE3.SA", Kind: ledger.KindBuy,
		AssetClass: ledger.ClassEquity, Price: 10, Quantity: 300,
		OccurredOn: day(2024, 1, 10), Active: true,
	})
	repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "VALE3.SA", Kind: ledger.KindSell,
		AssetClass: ledger.ClassEquity, Price: 14, Quantity: 100,
		OccurredOn: day(2024, 2, 10), Active: true,
	})

	synthetic, err := svc.Apply(context.Background(), corporate.ApplyParams{
		PortfolioID: portfolioID, Instrument: "VALE3",
		Kind: ledger.KindSplit, AssetClass: ledger.ClassEquity,
		EffectiveDate: day(2024, 6, 1), RatioBefore: 1, RatioAfter: 2,
	})
	require.NoError(t, err)

	assert.InDelta(t, 400, synthetic.Quantity, 1e-9)
	assert.InDelta(t, 5, synthetic.Price, 1e-9)
}

func TestService_Apply_ReverseSplitFloorsFractions(t *testing.T) {
	repo := newFakeLedger()
	svc := corporate.NewService(repo)

	portfolioID := uuid.New()
	repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "MGLU3.SA", Kind: ledger.KindBuy,
		AssetClass: ledger.ClassEquity, Price: 2, Quantity: 205,
		OccurredOn: day(2024, 1, 10), Active: true,
	})

	synthetic, err := svc.Apply(context.Background(), corporate.ApplyParams{
		PortfolioID: portfolioID, Instrument: "MGLU3",
		Kind: ledger.KindReverseSplit, AssetClass: ledger.ClassEquity,
		EffectiveDate: day(2024, 6, 1), RatioBefore: 10, RatioAfter: 1,
	})
	require.NoError(t, err)

	// 205 / 10 = 20.5, floored. Average scales the other way.
	assert.InDelta(t, 20, synthetic.Quantity, 1e-9)
	assert.InDelta(t, 20, synthetic.Price, 1e-9)
}

func TestService_Apply_NoAffectedRows(t *testing.T) {
	repo := newFakeLedger()
	svc := corporate.NewService(repo)

	portfolioID := uuid.New()
	repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindBuy,
		AssetClass: ledger.ClassEquity, Price: 10, Quantity: 100,
		OccurredOn: day(2024, 7, 1), Active: true,
	})

	// Effective date precedes all activity.
	_, err := svc.Apply(context.Background(), corporate.ApplyParams{
		PortfolioID: portfolioID, Instrument: "PETR4",
		Kind: ledger.KindSplit, AssetClass: ledger.ClassEquity,
		EffectiveDate: day(2024, 6, 1), RatioBefore: 1, RatioAfter: 10,
	})
	assert.ErrorIs(t, err, ledger.ErrNoTransactions)
}

func TestService_Apply_ZeroNetPosition(t *testing.T) {
	repo := newFakeLedger()
	svc := corporate.NewService(repo)

	portfolioID := uuid.New()
	repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindBuy,
		AssetClass: ledger.ClassEquity, Price: 10, Quantity: 100,
		OccurredOn: day(2024, 1, 10), Active: true,
	})
	repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindSell,
		AssetClass: ledger.ClassEquity, Price: 12, Quantity: 100,
		OccurredOn: day(2024, 2, 10), Active: true,
	})

	_, err := svc.Apply(context.Background(), corporate.ApplyParams{
		PortfolioID: portfolioID, Instrument: "PETR4",
		Kind: ledger.KindSplit, AssetClass: ledger.ClassEquity,
		EffectiveDate: day(2024, 6, 1), RatioBefore: 1, RatioAfter: 10,
	})
	assert.ErrorIs(t, err, ledger.ErrNoTransactions)
}

func TestService_ApplyThenReverse_RoundTrip(t *testing.T) {
	repo := newFakeLedger()
	svc := corporate.NewService(repo)

	portfolioID := uuid.New()
	buy1 := repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindBuy,
		AssetClass: ledger.ClassEquity, Price: 10, Quantity: 100,
		OccurredOn: day(2024, 1, 10), Active: true,
	})
	sell := repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindSell,
		AssetClass: ledger.ClassEquity, Price: 12, Quantity: 30,
		OccurredOn: day(2024, 2, 10), Active: true,
	})

	synthetic, err := svc.Apply(context.Background(), corporate.ApplyParams{
		PortfolioID: portfolioID, Instrument: "PETR4",
		Kind: ledger.KindSplit, AssetClass: ledger.ClassEquity,
		EffectiveDate: day(2024, 6, 1), RatioBefore: 1, RatioAfter: 10,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reverse(context.Background(), portfolioID, synthetic.ID))

	_, ok := repo.rows[synthetic.ID]
	assert.False(t, ok, "synthetic row must be deleted")

	for _, id := range []int64{buy1.ID, sell.ID} {
		row := repo.rows[id]
		require.NotNil(t, row)
		assert.True(t, row.Active)
		assert.Nil(t, row.CorrectionID)
	}

	// The restored set replays to the original position.
	ctor, err := repo.BeginCorrection(context.Background(), portfolioID, "PETR4.SA")
	require.NoError(t, err)

	active, err := ctor.ListActiveThrough(context.Background(), day(2024, 12, 31))
	require.NoError(t, err)

	pos, err := ledger.Replay(active)
	require.NoError(t, err)
	assert.InDelta(t, 70, pos.Quantity, 1e-9)
	assert.InDelta(t, 10, pos.AvgCost, 1e-9)
}

func TestService_Reverse_StackedCorrections(t *testing.T) {
	repo := newFakeLedger()
	svc := corporate.NewService(repo)

	portfolioID := uuid.New()
	buy1 := repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindBuy,
		AssetClass: ledger.ClassEquity, Price: 10, Quantity: 100,
		OccurredOn: day(2023, 1, 10), Active: true,
	})

	first, err := svc.Apply(context.Background(), corporate.ApplyParams{
		PortfolioID: portfolioID, Instrument: "PETR4",
		Kind: ledger.KindSplit, AssetClass: ledger.ClassEquity,
		EffectiveDate: day(2023, 6, 1), RatioBefore: 1, RatioAfter: 2,
	})
	require.NoError(t, err)

	buy2 := repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindBuy,
		AssetClass: ledger.ClassEquity, Price: 6, Quantity: 100,
		OccurredOn: day(2023, 9, 1), Active: true,
	})

	second, err := svc.Apply(context.Background(), corporate.ApplyParams{
		PortfolioID: portfolioID, Instrument: "PETR4",
		Kind: ledger.KindSplit, AssetClass: ledger.ClassEquity,
		EffectiveDate: day(2024, 3, 1), RatioBefore: 1, RatioAfter: 3,
	})
	require.NoError(t, err)

	// Reversing the second correction restores only what it deactivated.
	require.NoError(t, svc.Reverse(context.Background(), portfolioID, second.ID))

	assert.True(t, repo.rows[first.ID].Active)
	assert.Nil(t, repo.rows[first.ID].CorrectionID)
	assert.True(t, repo.rows[buy2.ID].Active)

	// Rows collapsed by the first, still-standing correction stay put.
	assert.False(t, repo.rows[buy1.ID].Active)
	require.NotNil(t, repo.rows[buy1.ID].CorrectionID)
	assert.Equal(t, first.ID, *repo.rows[buy1.ID].CorrectionID)
}

func TestService_Reverse_RejectsOversoldHistory(t *testing.T) {
	repo := newFakeLedger()
	svc := corporate.NewService(repo)

	portfolioID := uuid.New()
	buy := repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindBuy,
		AssetClass: ledger.ClassEquity, Price: 10, Quantity: 100,
		OccurredOn: day(2024, 1, 10), Active: true,
	})

	synthetic, err := svc.Apply(context.Background(), corporate.ApplyParams{
		PortfolioID: portfolioID, Instrument: "PETR4",
		Kind: ledger.KindSplit, AssetClass: ledger.ClassEquity,
		EffectiveDate: day(2024, 6, 1), RatioBefore: 1, RatioAfter: 10,
	})
	require.NoError(t, err)

	// Sold against the 1000-share corrected position. The original 100-share
	// history cannot absorb it, so the correction must not be reversible.
	sell := repo.seed(ledger.Transaction{
		PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindSell,
		AssetClass: ledger.ClassEquity, Price: 1.20, Quantity: 500,
		OccurredOn: day(2024, 7, 1), Active: true,
	})

	err = svc.Reverse(context.Background(), portfolioID, synthetic.ID)
	assert.ErrorIs(t, err, ledger.ErrConsistency)

	// Nothing moved: the correction still stands and the sell stays active.
	require.NotNil(t, repo.rows[synthetic.ID])
	assert.True(t, repo.rows[synthetic.ID].Active)
	assert.False(t, repo.rows[buy.ID].Active)
	require.NotNil(t, repo.rows[buy.ID].CorrectionID)
	assert.Equal(t, synthetic.ID, *repo.rows[buy.ID].CorrectionID)
	assert.True(t, repo.rows[sell.ID].Active)
}

func TestService_Reverse_Guards(t *testing.T) {
	portfolioID := uuid.New()

	t.Run("NotCorporate", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := corporate.NewMockLedger(ctrl)
		svc := corporate.NewService(repo)

		repo.EXPECT().
			GetTransaction(gomock.Any(), int64(5)).
			Return(&ledger.Transaction{ID: 5, PortfolioID: portfolioID, Kind: ledger.KindBuy}, nil)

		err := svc.Reverse(context.Background(), portfolioID, 5)
		assert.ErrorIs(t, err, ledger.ErrValidation)
	})

	t.Run("OtherPortfolio", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := corporate.NewMockLedger(ctrl)
		svc := corporate.NewService(repo)

		repo.EXPECT().
			GetTransaction(gomock.Any(), int64(5)).
			Return(&ledger.Transaction{ID: 5, PortfolioID: uuid.New(), Kind: ledger.KindSplit}, nil)

		err := svc.Reverse(context.Background(), portfolioID, 5)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("Missing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := corporate.NewMockLedger(ctrl)
		svc := corporate.NewService(repo)

		repo.EXPECT().
			GetTransaction(gomock.Any(), int64(5)).
			Return(nil, ledger.ErrNotFound)

		err := svc.Reverse(context.Background(), portfolioID, 5)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})
}
