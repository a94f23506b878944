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

	"github.com/mtrindade/carteira/internal/corporate"
	"github.com/mtrindade/carteira/internal/ledger"
)

// ActionsModel applies splits and reverse splits.
type ActionsModel struct {
	CommonModel
	corporateSvc *corporate.Service
	portfolioID  uuid.UUID

	form     *huh.Form
	status   string
	applying bool

	formInstrument string
	formKind       string
	formClass      string
	formDate       string
	formBefore     string
	formAfter      string
}

func NewActionsModel(corporateSvc *corporate.Service, portfolioID uuid.UUID) ActionsModel {
	m := ActionsModel{
		corporateSvc: corporateSvc,
		portfolioID:  portfolioID,
	}
	m.form = m.newForm()

	return m
}

func (m *ActionsModel) newForm() *huh.Form {
	m.formKind = string(ledger.KindSplit)
	m.formClass = string(ledger.ClassEquity)
	m.formDate = FormatDate(time.Now())
	m.formInstrument = ""
	m.formBefore = "1"
	m.formAfter = ""

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
				Title("Action").
				Options(
					huh.NewOption("Split", string(ledger.KindSplit)),
					huh.NewOption("Reverse split", string(ledger.KindReverseSplit)),
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
				Key("effective_date").
				Title("Effective date (YYYY-MM-DD)").
				Value(&m.formDate).
				Validate(validateDate),

			huh.NewInput().
				Key("ratio_before").
				Title("Ratio before").
				Value(&m.formBefore).
				Validate(validatePositiveInt),

			huh.NewInput().
				Key("ratio_after").
				Title("Ratio after").
				Value(&m.formAfter).
				Validate(validatePositiveInt),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m ActionsModel) Title() string     { return "Corporate Actions" }
func (m ActionsModel) ShortHelp() string { return "Navigate form | Esc: back" }

func (m ActionsModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ActionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionAppliedMsg:
		m.applying = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Applied: %s now %s @ %s",
				msg.synthetic.Instrument,
				FormatQuantity(msg.synthetic.Quantity),
				FormatMoney(msg.synthetic.Price))
		}

		m.form = m.newForm()

		return m, m.form.Init()

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.applying {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.applying = true

	return m, m.applyCmd()
}

func (m ActionsModel) View() string {
	content := "Apply Split / Reverse Split\n\n" + m.form.View()

	if m.applying {
		content = "Applying..."
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

func validatePositiveInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return fmt.Errorf("must be a positive integer")
	}

	return nil
}

type actionAppliedMsg struct {
	synthetic *ledger.Transaction
	err       error
}

func (m ActionsModel) applyCmd() tea.Cmd {
	instrument := m.form.GetString("instrument")
	kind := ledger.Kind(m.form.GetString("kind"))
	class := ledger.AssetClass(m.form.GetString("asset_class"))
	effectiveDate, _ := time.Parse(time.DateOnly, strings.TrimSpace(m.form.GetString("effective_date")))
	before, _ := strconv.Atoi(strings.TrimSpace(m.form.GetString("ratio_before")))
	after, _ := strconv.Atoi(strings.TrimSpace(m.form.GetString("ratio_after")))

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		synthetic, err := m.corporateSvc.Apply(ctx, corporate.ApplyParams{
			PortfolioID:   m.portfolioID,
			Instrument:    instrument,
			Kind:          kind,
			AssetClass:    class,
			EffectiveDate: effectiveDate,
			RatioBefore:   before,
			RatioAfter:    after,
		})

		return actionAppliedMsg{synthetic: synthetic, err: err}
	}
}
