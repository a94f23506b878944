package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/valuation"
)

type HoldingsModel struct {
	CommonModel
	valuationSvc *valuation.Service
	portfolioID  uuid.UUID

	table    table.Model
	holdings []valuation.Holding
	loading  bool
	err      error
}

func NewHoldingsModel(valuationSvc *valuation.Service, portfolioID uuid.UUID) HoldingsModel {
	columns := []table.Column{
		{Title: "Instrument", Width: 12},
		{Title: "Qty", Width: 10},
		{Title: "Avg Cost", Width: 12},
		{Title: "Price", Width: 12},
		{Title: "Value", Width: 14},
		{Title: "Return", Width: 10},
		{Title: "Weight", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return HoldingsModel{
		valuationSvc: valuationSvc,
		portfolioID:  portfolioID,
		table:        t,
		loading:      true,
	}
}

func (m HoldingsModel) Title() string     { return "Holdings" }
func (m HoldingsModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m HoldingsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m HoldingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadHoldingsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.holdings = msg.holdings
		m.err = nil
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 8)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m HoldingsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading holdings...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	var total float64
	for _, h := range m.holdings {
		if h.MarketValue != nil {
			total += *h.MarketValue
		}
	}

	header := fmt.Sprintf("Portfolio value: %s", FormatMoney(total))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().PaddingBottom(1).Render(header),
			tableView,
		),
	)
}

func (m *HoldingsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.holdings))

	for _, h := range m.holdings {
		price, value, ret, weight := "-", "-", "-", "-"

		if h.CurrentPrice != nil {
			price = FormatMoney(*h.CurrentPrice)
		}

		if h.MarketValue != nil {
			value = FormatMoney(*h.MarketValue)
		}

		if h.ReturnPct != nil {
			ret = fmt.Sprintf("%+.2f%%", *h.ReturnPct)
		}

		if h.WeightPct != nil {
			weight = fmt.Sprintf("%.1f%%", *h.WeightPct)
		}

		rows = append(rows, table.Row{
			h.Instrument,
			FormatQuantity(h.Quantity),
			FormatMoney(h.AverageCost),
			price,
			value,
			ret,
			weight,
		})
	}

	m.table.SetRows(rows)
}

type loadHoldingsMsg struct {
	holdings []valuation.Holding
	err      error
}

func (m HoldingsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		holdings, err := m.valuationSvc.Snapshot(ctx, m.portfolioID)

		return loadHoldingsMsg{holdings: holdings, err: err}
	}
}
