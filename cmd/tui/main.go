package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/mtrindade/carteira/cmd/tui/internal/view"
	"github.com/mtrindade/carteira/internal/config"
	"github.com/mtrindade/carteira/internal/corporate"
	"github.com/mtrindade/carteira/internal/database"
	"github.com/mtrindade/carteira/internal/importer"
	"github.com/mtrindade/carteira/internal/ledger"
	ledgerStore "github.com/mtrindade/carteira/internal/ledger/store"
	"github.com/mtrindade/carteira/internal/quote"
	"github.com/mtrindade/carteira/internal/valuation"
)

type model struct {
	ledgerService    *ledger.Service
	corporateService *corporate.Service
	valuationService *valuation.Service
	importService    *importer.Service
	portfolioID      uuid.UUID

	currentView View

	holdingsView view.HoldingsModel
	ledgerView   view.LedgerModel
	entryView    view.EntryModel
	actionsView  view.ActionsModel
	importView   view.ImportModel
}

type View int

const (
	ViewMenu     View = 0
	ViewHoldings View = 1
	ViewLedger   View = 2
	ViewEntry    View = 3
	ViewActions  View = 4
	ViewImport   View = 5
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	portfolioID, err := uuid.Parse(cfg.Portfolio.ID)
	if err != nil {
		slog.Error("PORTFOLIO_ID must be set to a valid UUID")
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	store := ledgerStore.New(db)

	ledgerSvc := ledger.NewService(store)
	corporateSvc := corporate.NewService(store)
	importSvc := importer.NewService()
	quoteClient := quote.NewBrapiClient(cfg.Quote.BaseURL, cfg.Quote.Token, cfg.Quote.Timeout)
	valuationSvc := valuation.NewService(ledgerSvc, quoteClient)

	return model{
		ledgerService:    ledgerSvc,
		corporateService: corporateSvc,
		valuationService: valuationSvc,
		importService:    importSvc,
		portfolioID:      portfolioID,
		currentView:      ViewMenu,
		holdingsView:     view.NewHoldingsModel(valuationSvc, portfolioID),
		ledgerView:       view.NewLedgerModel(ledgerSvc, corporateSvc, portfolioID),
		entryView:        view.NewEntryModel(ledgerSvc, portfolioID),
		actionsView:      view.NewActionsModel(corporateSvc, portfolioID),
		importView:       view.NewImportModel(ledgerSvc, importSvc, portfolioID),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewHoldings
				m.holdingsView = view.NewHoldingsModel(m.valuationService, m.portfolioID)

				return m, m.holdingsView.Init()
			case "2":
				m.currentView = ViewLedger
				m.ledgerView = view.NewLedgerModel(m.ledgerService, m.corporateService, m.portfolioID)

				return m, m.ledgerView.Init()
			case "3":
				m.currentView = ViewEntry
				m.entryView = view.NewEntryModel(m.ledgerService, m.portfolioID)

				return m, m.entryView.Init()
			case "4":
				m.currentView = ViewActions
				m.actionsView = view.NewActionsModel(m.corporateService, m.portfolioID)

				return m, m.actionsView.Init()
			case "5":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.ledgerService, m.importService, m.portfolioID)

				return m, m.importView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewHoldings:
		var newModel tea.Model
		newModel, cmd = m.holdingsView.Update(msg)
		m.holdingsView = newModel.(view.HoldingsModel)
	case ViewLedger:
		var newModel tea.Model
		newModel, cmd = m.ledgerView.Update(msg)
		m.ledgerView = newModel.(view.LedgerModel)
	case ViewEntry:
		var newModel tea.Model
		newModel, cmd = m.entryView.Update(msg)
		m.entryView = newModel.(view.EntryModel)
	case ViewActions:
		var newModel tea.Model
		newModel, cmd = m.actionsView.Update(msg)
		m.actionsView = newModel.(view.ActionsModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Carteira TUI\n\n" +
				"1. Holdings\n" +
				"2. Ledger\n" +
				"3. New Entry\n" +
				"4. Corporate Actions\n" +
				"5. Import B3 Export\n\n" +
				"q. Quit",
		)
	case ViewHoldings:
		return m.holdingsView.View()
	case ViewLedger:
		return m.ledgerView.View()
	case ViewEntry:
		return m.entryView.View()
	case ViewActions:
		return m.actionsView.View()
	case ViewImport:
		return m.importView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
