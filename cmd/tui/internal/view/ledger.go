package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/corporate"
	"github.com/mtrindade/carteira/internal/ledger"
)

type ledgerState int

const (
	ledgerStateBrowse ledgerState = iota
	ledgerStateEdit
)

type LedgerModel struct {
	CommonModel
	ledgerSvc    *ledger.Service
	corporateSvc *corporate.Service
	portfolioID  uuid.UUID

	state ledgerState
	table table.Model
	txs   []*ledger.Transaction
	form  *huh.Form

	activeOnly bool
	loading    bool
	err        error
	status     string

	// Form bindings
	formPrice    string
	formQuantity string
}

func NewLedgerModel(ledgerSvc *ledger.Service, corporateSvc *corporate.Service, portfolioID uuid.UUID) LedgerModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Date", Width: 12},
		{Title: "Instrument", Width: 12},
		{Title: "Kind", Width: 14},
		{Title: "Qty", Width: 10},
		{Title: "Price", Width: 12},
		{Title: "Active", Width: 7},
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

	return LedgerModel{
		ledgerSvc:    ledgerSvc,
		corporateSvc: corporateSvc,
		portfolioID:  portfolioID,
		table:        t,
	}
}

func (m LedgerModel) Title() string { return "Ledger" }
func (m LedgerModel) ShortHelp() string {
	if m.state == ledgerStateEdit {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | e: edit | d: delete | a: active only | r: refresh"
}

func (m LedgerModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m LedgerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadLedgerMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.txs = msg.txs
		m.err = nil
		m.refreshTable()

		return m, nil

	case ledgerSaveMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.note
		}

		m.state = ledgerStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case ledgerStateBrowse:
		return m.updateBrowse(msg)
	case ledgerStateEdit:
		return m.updateEdit(msg)
	}

	return m, nil
}

func (m LedgerModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "a":
			m.activeOnly = !m.activeOnly
			return m, m.loadCmd()
		case "e":
			return m.enterEditMode()
		case "d":
			return m, m.deleteCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m LedgerModel) enterEditMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return m, nil
	}

	tx := m.txs[idx]
	if tx.Kind.IsCorporate() {
		m.status = "Corporate-action rows cannot be edited; delete to reverse"
		return m, nil
	}

	m.formPrice = strconv.FormatFloat(tx.Price, 'f', -1, 64)
	m.formQuantity = strconv.FormatFloat(tx.Quantity, 'f', -1, 64)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("price").
				Title("Price").
				Value(&m.formPrice).
				Validate(validatePositiveNumber),

			huh.NewInput().
				Key("quantity").
				Title("Quantity").
				Value(&m.formQuantity).
				Validate(validatePositiveNumber),
		),
	).WithWidth(40).WithShowHelp(false)

	m.state = ledgerStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m LedgerModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = ledgerStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m LedgerModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading ledger...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	filter := "all rows"
	if m.activeOnly {
		filter = "active only"
	}

	header := fmt.Sprintf("Showing: %s", activeStyle(filter))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == ledgerStateEdit && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(44).
			Render("Edit Entry\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func validatePositiveNumber(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("must be a positive number")
	}

	return nil
}

func (m *LedgerModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))

	for _, tx := range m.txs {
		active := "no"
		if tx.Active {
			active = "yes"
		}

		rows = append(rows, table.Row{
			strconv.FormatInt(tx.ID, 10),
			FormatDate(tx.OccurredOn),
			tx.Instrument,
			string(tx.Kind),
			FormatQuantity(tx.Quantity),
			FormatMoney(tx.Price),
			active,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadLedgerMsg struct {
	txs []*ledger.Transaction
	err error
}

func (m LedgerModel) loadCmd() tea.Cmd {
	filter := ledger.ListFilter{
		PortfolioID: m.portfolioID,
		ActiveOnly:  m.activeOnly,
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.ledgerSvc.List(ctx, filter)

		return loadLedgerMsg{txs: txs, err: err}
	}
}

type ledgerSaveMsg struct {
	note string
	err  error
}

func (m LedgerModel) saveCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	id := m.txs[idx].ID
	price, _ := strconv.ParseFloat(strings.TrimSpace(m.form.GetString("price")), 64)
	quantity, _ := strconv.ParseFloat(strings.TrimSpace(m.form.GetString("quantity")), 64)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.ledgerSvc.Update(ctx, m.portfolioID, id, ledger.UpdateParams{
			Price:    &price,
			Quantity: &quantity,
		})
		if err != nil {
			return ledgerSaveMsg{err: err}
		}

		return ledgerSaveMsg{note: "Saved"}
	}
}

// deleteCmd removes the selected row. A corporate-action row is reversed
// instead, restoring the history it collapsed.
func (m LedgerModel) deleteCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	tx := m.txs[idx]

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if tx.Kind.IsCorporate() {
			if err := m.corporateSvc.Reverse(ctx, m.portfolioID, tx.ID); err != nil {
				return ledgerSaveMsg{err: err}
			}

			return ledgerSaveMsg{note: "Correction reversed"}
		}

		if err := m.ledgerSvc.Delete(ctx, m.portfolioID, tx.ID); err != nil {
			return ledgerSaveMsg{err: err}
		}

		return ledgerSaveMsg{note: "Deleted"}
	}
}
