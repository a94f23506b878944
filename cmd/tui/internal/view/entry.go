package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/ledger"
)

// EntryModel is the manual buy/sell entry form.
type EntryModel struct {
	CommonModel
	ledgerSvc   *ledger.Service
	portfolioID uuid.UUID

	form   *huh.Form
	status string
	saving bool

	formInstrument string
	formKind       string
	formClass      string
	formPrice      string
	formQuantity   string
	formDate       string
}

func NewEntryModel(ledgerSvc *ledger.Service, portfolioID uuid.UUID) EntryModel {
	m := EntryModel{
		ledgerSvc:   ledgerSvc,
		portfolioID: portfolioID,
	}
	m.form = m.newForm()

	return m
}

func (m *EntryModel) newForm() *huh.Form {
	m.formKind = string(ledger.KindBuy)
	m.formClass = string(ledger.ClassEquity)
	m.formDate = FormatDate(time.Now())
	m.formInstrument = ""
	m.formPrice = ""
	m.formQuantity = ""

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("instrument").
				Title("Instrument").
				Placeholder("PETR4").
				Value(&m.formInstrument).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("instrument cannot be empty")
					}

					return nil
				}),

			huh.NewSelect[string]().
				Key("kind").
				Title("Kind").
				Options(
					huh.NewOption("Buy", string(ledger.KindBuy)),
					huh.NewOption("Sell", string(ledger.KindSell)),
				).
				Value(&m.formKind),

			huh.NewSelect[string]().
				Key("asset_class").
				Title("Asset class").
				Options(
					huh.NewOption("Equity", string(ledger.ClassEquity)),
					huh.NewOption("Fund", string(ledger.ClassFund)),
				).
				Value(&m.formClass),

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

			huh.NewInput().
				Key("date").
				Title("Date (YYYY-MM-DD)").
				Value(&m.formDate).
				Validate(validateDate),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m EntryModel) Title() string     { return "New Entry" }
func (m EntryModel) ShortHelp() string { return "Navigate form | Esc: back" }

func (m EntryModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m EntryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case entrySavedMsg:
		m.saving = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Recorded %s %s x%s", msg.kind, msg.instrument, msg.quantity)
		}

		m.form = m.newForm()

		return m, m.form.Init()

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.saving {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.saving = true

	return m, m.saveCmd()
}

func (m EntryModel) View() string {
	content := "Record Trade\n\n" + m.form.View()

	if m.saving {
		content = "Saving..."
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

func validateDate(s string) error {
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("must be a YYYY-MM-DD date")
	}

	return nil
}

type entrySavedMsg struct {
	instrument string
	kind       string
	quantity   string
	err        error
}

func (m EntryModel) saveCmd() tea.Cmd {
	instrument := m.form.GetString("instrument")
	kind := m.form.GetString("kind")
	class := m.form.GetString("asset_class")
	quantityStr := m.form.GetString("quantity")
	price, _ := strconv.ParseFloat(strings.TrimSpace(m.form.GetString("price")), 64)
	quantity, _ := strconv.ParseFloat(strings.TrimSpace(quantityStr), 64)
	occurredOn, _ := time.Parse(time.DateOnly, strings.TrimSpace(m.form.GetString("date")))

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.ledgerSvc.Append(ctx, ledger.CreateParams{
			PortfolioID: m.portfolioID,
			Instrument:  instrument,
			Kind:        ledger.Kind(kind),
			AssetClass:  ledger.AssetClass(class),
			Price:       price,
			Quantity:    quantity,
			OccurredOn:  occurredOn,
		})

		return entrySavedMsg{
			instrument: instrument,
			kind:       kind,
			quantity:   quantityStr,
			err:        err,
		}
	}
}
