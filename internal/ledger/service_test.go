package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mtrindade/carteira/internal/ledger"
)

func TestService_Append_Validation(t *testing.T) {
	type testCase struct {
		name   string
		params ledger.CreateParams
	}

	tests := []testCase{
		{
			name: "MissingInstrument",
			params: ledger.CreateParams{
				Kind:       ledger.KindBuy,
				AssetClass: ledger.ClassEquity,
				Price:      10,
				Quantity:   100,
				OccurredOn: day(2024, 1, 10),
			},
		},
		{
			name: "UnknownKind",
			params: ledger.CreateParams{
				Instrument: "PETR4",
				Kind:       "TRANSFER",
				AssetClass: ledger.ClassEquity,
				Price:      10,
				Quantity:   100,
				OccurredOn: day(2024, 1, 10),
			},
		},
		{
			name: "UnknownAssetClass",
			params: ledger.CreateParams{
				Instrument: "PETR4",
				Kind:       ledger.KindBuy,
				AssetClass: "crypto",
				Price:      10,
				Quantity:   100,
				OccurredOn: day(2024, 1, 10),
			},
		},
		{
			name: "ZeroQuantity",
			params: ledger.CreateParams{
				Instrument: "PETR4",
				Kind:       ledger.KindBuy,
				AssetClass: ledger.ClassEquity,
				Price:      10,
				OccurredOn: day(2024, 1, 10),
			},
		},
		{
			name: "NegativePrice",
			params: ledger.CreateParams{
				Instrument: "PETR4",
				Kind:       ledger.KindBuy,
				AssetClass: ledger.ClassEquity,
				Price:      -1,
				Quantity:   100,
				OccurredOn: day(2024, 1, 10),
			},
		},
		{
			name: "CorporateKindRefused",
			params: ledger.CreateParams{
				Instrument: "PETR4",
				Kind:       ledger.KindSplit,
				AssetClass: ledger.ClassEquity,
				Price:      10,
				Quantity:   100,
				OccurredOn: day(2024, 1, 10),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := ledger.NewMockRepository(ctrl)
			svc := ledger.NewService(repo)

			got, err := svc.Append(context.Background(), tt.params)
			assert.ErrorIs(t, err, ledger.ErrValidation)
			assert.Nil(t, got)
		})
	}
}

func TestService_Append_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	wtx := ledger.NewMockWriteTx(ctrl)
	svc := ledger.NewService(repo)

	portfolioID := uuid.New()

	repo.EXPECT().
		BeginWrite(gomock.Any(), portfolioID, []string{"PETR4.SA"}).
		Return(wtx, nil)
	wtx.EXPECT().ListActive(gomock.Any(), "PETR4.SA").Return(nil, nil)
	wtx.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txs ...*ledger.Transaction) error {
			require.Len(t, txs, 1)
			txs[0].ID = 7
			txs[0].CreatedAt = time.Now()
			return nil
		})
	wtx.EXPECT().Commit().Return(nil)
	wtx.EXPECT().Rollback().Return(nil)

	got, err := svc.Append(context.Background(), ledger.CreateParams{
		PortfolioID: portfolioID,
		Instrument:  "petr4",
		Kind:        ledger.KindBuy,
		AssetClass:  ledger.ClassEquity,
		Price:       34.12,
		Quantity:    100,
		OccurredOn:  day(2024, 1, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "PETR4.SA", got.Instrument)
	assert.True(t, got.Active)
}

func TestService_Append_SellExceedingHeld(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	wtx := ledger.NewMockWriteTx(ctrl)
	svc := ledger.NewService(repo)

	portfolioID := uuid.New()
	active := []*ledger.Transaction{
		{ID: 1, Kind: ledger.KindBuy, Instrument: "PETR4.SA", Price: 10, Quantity: 100, OccurredOn: day(2024, 1, 10), Active: true},
	}

	repo.EXPECT().
		BeginWrite(gomock.Any(), portfolioID, []string{"PETR4.SA"}).
		Return(wtx, nil)
	wtx.EXPECT().ListActive(gomock.Any(), "PETR4.SA").Return(active, nil)
	wtx.EXPECT().Rollback().Return(nil)

	got, err := svc.Append(context.Background(), ledger.CreateParams{
		PortfolioID: portfolioID,
		Instrument:  "PETR4",
		Kind:        ledger.KindSell,
		AssetClass:  ledger.ClassEquity,
		Price:       12,
		Quantity:    150,
		OccurredOn:  day(2024, 2, 10),
	})
	assert.ErrorIs(t, err, ledger.ErrConsistency)
	assert.Nil(t, got)
}

func TestService_AppendBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	wtx := ledger.NewMockWriteTx(ctrl)
	svc := ledger.NewService(repo)

	portfolioID := uuid.New()
	params := []ledger.CreateParams{
		{Instrument: "petr4", Kind: ledger.KindBuy, AssetClass: ledger.ClassEquity, Price: 30, Quantity: 100, OccurredOn: day(2024, 1, 10)},
		{Instrument: "vale3", Kind: ledger.KindBuy, AssetClass: ledger.ClassEquity, Price: 60, Quantity: 50, OccurredOn: day(2024, 1, 11)},
		{Instrument: "PETR4.SA", Kind: ledger.KindSell, AssetClass: ledger.ClassEquity, Price: 31, Quantity: 40, OccurredOn: day(2024, 1, 12)},
	}

	repo.EXPECT().
		BeginWrite(gomock.Any(), portfolioID, []string{"PETR4.SA", "VALE3.SA"}).
		Return(wtx, nil)
	wtx.EXPECT().ListActive(gomock.Any(), "PETR4.SA").Return(nil, nil)
	wtx.EXPECT().ListActive(gomock.Any(), "VALE3.SA").Return(nil, nil)
	wtx.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	wtx.EXPECT().Commit().Return(nil)
	wtx.EXPECT().Rollback().Return(nil)

	txs, err := svc.AppendBatch(context.Background(), portfolioID, params)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "PETR4.SA", txs[0].Instrument)
	assert.Equal(t, "VALE3.SA", txs[1].Instrument)
	assert.Equal(t, portfolioID, txs[2].PortfolioID)
}

func TestService_AppendBatch_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	svc := ledger.NewService(repo)

	txs, err := svc.AppendBatch(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestService_Get(t *testing.T) {
	portfolioID := uuid.New()

	type testCase struct {
		name      string
		setupMock func(m *ledger.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().
					GetTransaction(gomock.Any(), int64(1)).
					Return(&ledger.Transaction{ID: 1, PortfolioID: portfolioID}, nil)
			},
		},
		{
			name: "OtherPortfolio",
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().
					GetTransaction(gomock.Any(), int64(1)).
					Return(&ledger.Transaction{ID: 1, PortfolioID: uuid.New()}, nil)
			},
			wantErr: ledger.ErrNotFound,
		},
		{
			name: "Missing",
			setupMock: func(m *ledger.MockRepository) {
				m.EXPECT().
					GetTransaction(gomock.Any(), int64(1)).
					Return(nil, ledger.ErrNotFound)
			},
			wantErr: ledger.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := ledger.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := ledger.NewService(repo)
			got, err := svc.Get(context.Background(), portfolioID, 1)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(1), got.ID)
		})
	}
}

func TestService_Update_CorporateRowRefused(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	svc := ledger.NewService(repo)

	portfolioID := uuid.New()

	repo.EXPECT().
		GetTransaction(gomock.Any(), int64(9)).
		Return(&ledger.Transaction{ID: 9, PortfolioID: portfolioID, Kind: ledger.KindSplit}, nil)

	price := 1.0
	got, err := svc.Update(context.Background(), portfolioID, 9, ledger.UpdateParams{Price: &price})
	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.Nil(t, got)
}

func TestService_Update_SupersededRowRefused(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	svc := ledger.NewService(repo)

	portfolioID := uuid.New()
	correctionID := int64(20)

	// The row was collapsed by a standing correction; editing its instrument
	// would pull it out of the set the reversal restores.
	repo.EXPECT().
		GetTransaction(gomock.Any(), int64(3)).
		Return(&ledger.Transaction{
			ID: 3, PortfolioID: portfolioID, Instrument: "PETR4.SA",
			Kind: ledger.KindBuy, AssetClass: ledger.ClassEquity,
			Price: 10, Quantity: 100, OccurredOn: day(2024, 1, 10),
			CorrectionID: &correctionID,
		}, nil)

	instrument := "VALE3"
	got, err := svc.Update(context.Background(), portfolioID, 3, ledger.UpdateParams{Instrument: &instrument})
	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.Nil(t, got)
}

func TestService_Update_ReplaysRewrittenHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	wtx := ledger.NewMockWriteTx(ctrl)
	svc := ledger.NewService(repo)

	portfolioID := uuid.New()
	existing := &ledger.Transaction{
		ID: 2, PortfolioID: portfolioID, Instrument: "PETR4.SA",
		Kind: ledger.KindSell, AssetClass: ledger.ClassEquity,
		Price: 12, Quantity: 50, OccurredOn: day(2024, 2, 10), Active: true,
	}
	active := []*ledger.Transaction{
		{ID: 1, PortfolioID: portfolioID, Instrument: "PETR4.SA", Kind: ledger.KindBuy, Price: 10, Quantity: 100, OccurredOn: day(2024, 1, 10), Active: true},
		existing,
	}

	repo.EXPECT().GetTransaction(gomock.Any(), int64(2)).Return(existing, nil)
	repo.EXPECT().
		BeginWrite(gomock.Any(), portfolioID, []string{"PETR4.SA"}).
		Return(wtx, nil)
	wtx.EXPECT().ListActive(gomock.Any(), "PETR4.SA").Return(active, nil)
	wtx.EXPECT().Rollback().Return(nil)

	// Bumping the sell above the held quantity must fail the replay.
	qty := 150.0
	got, err := svc.Update(context.Background(), portfolioID, 2, ledger.UpdateParams{Quantity: &qty})
	assert.ErrorIs(t, err, ledger.ErrConsistency)
	assert.Nil(t, got)
}

func TestService_Delete(t *testing.T) {
	portfolioID := uuid.New()

	buy := &ledger.Transaction{
		ID: 1, PortfolioID: portfolioID, Instrument: "PETR4.SA",
		Kind: ledger.KindBuy, Price: 10, Quantity: 100,
		OccurredOn: day(2024, 1, 10), Active: true,
	}
	sell := &ledger.Transaction{
		ID: 2, PortfolioID: portfolioID, Instrument: "PETR4.SA",
		Kind: ledger.KindSell, Price: 12, Quantity: 50,
		OccurredOn: day(2024, 2, 10), Active: true,
	}

	t.Run("CorporateRowRefused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := ledger.NewMockRepository(ctrl)
		svc := ledger.NewService(repo)

		repo.EXPECT().
			GetTransaction(gomock.Any(), int64(9)).
			Return(&ledger.Transaction{ID: 9, PortfolioID: portfolioID, Kind: ledger.KindReverseSplit}, nil)

		err := svc.Delete(context.Background(), portfolioID, 9)
		assert.ErrorIs(t, err, ledger.ErrValidation)
	})

	t.Run("SupersededRowRefused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := ledger.NewMockRepository(ctrl)
		svc := ledger.NewService(repo)

		correctionID := int64(20)
		repo.EXPECT().
			GetTransaction(gomock.Any(), int64(4)).
			Return(&ledger.Transaction{
				ID: 4, PortfolioID: portfolioID, Instrument: "PETR4.SA",
				Kind: ledger.KindBuy, Price: 10, Quantity: 100,
				OccurredOn: day(2024, 1, 10), CorrectionID: &correctionID,
			}, nil)

		err := svc.Delete(context.Background(), portfolioID, 4)
		assert.ErrorIs(t, err, ledger.ErrValidation)
	})

	t.Run("BuyWithDependentSellRefused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := ledger.NewMockRepository(ctrl)
		wtx := ledger.NewMockWriteTx(ctrl)
		svc := ledger.NewService(repo)

		repo.EXPECT().GetTransaction(gomock.Any(), int64(1)).Return(buy, nil)
		repo.EXPECT().
			BeginWrite(gomock.Any(), portfolioID, []string{"PETR4.SA"}).
			Return(wtx, nil)
		wtx.EXPECT().ListActive(gomock.Any(), "PETR4.SA").Return([]*ledger.Transaction{buy, sell}, nil)
		wtx.EXPECT().Rollback().Return(nil)

		err := svc.Delete(context.Background(), portfolioID, 1)
		assert.ErrorIs(t, err, ledger.ErrConsistency)
	})

	t.Run("Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := ledger.NewMockRepository(ctrl)
		wtx := ledger.NewMockWriteTx(ctrl)
		svc := ledger.NewService(repo)

		repo.EXPECT().GetTransaction(gomock.Any(), int64(2)).Return(sell, nil)
		repo.EXPECT().
			BeginWrite(gomock.Any(), portfolioID, []string{"PETR4.SA"}).
			Return(wtx, nil)
		wtx.EXPECT().ListActive(gomock.Any(), "PETR4.SA").Return([]*ledger.Transaction{buy, sell}, nil)
		wtx.EXPECT().Delete(gomock.Any(), int64(2)).Return(nil)
		wtx.EXPECT().Commit().Return(nil)
		wtx.EXPECT().Rollback().Return(nil)

		err := svc.Delete(context.Background(), portfolioID, 2)
		require.NoError(t, err)
	})
}

func TestService_List_NormalizesInstrumentFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	svc := ledger.NewService(repo)

	portfolioID := uuid.New()

	repo.EXPECT().
		ListTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter ledger.ListFilter) ([]*ledger.Transaction, error) {
			require.NotNil(t, filter.Instrument)
			assert.Equal(t, "PETR4.SA", *filter.Instrument)
			return nil, nil
		})

	instrument := "petr4"
	_, err := svc.List(context.Background(), ledger.ListFilter{
		PortfolioID: portfolioID,
		Instrument:  &instrument,
	})
	require.NoError(t, err)
}

func TestService_Position_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	svc := ledger.NewService(repo)

	portfolioID := uuid.New()

	repo.EXPECT().
		ListActive(gomock.Any(), portfolioID, "PETR4.SA").
		Return(nil, errors.New("db error"))

	_, err := svc.Position(context.Background(), portfolioID, "PETR4")
	assert.Error(t, err)
}
