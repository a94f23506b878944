package view

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/importer"
	"github.com/mtrindade/carteira/internal/ledger"
)

// ImportModel loads a B3 export file into the ledger.
type ImportModel struct {
	CommonModel
	ledgerSvc   *ledger.Service
	importSvc   *importer.Service
	portfolioID uuid.UUID

	form      *huh.Form
	status    string
	importing bool

	formPath string
}

func NewImportModel(ledgerSvc *ledger.Service, importSvc *importer.Service, portfolioID uuid.UUID) ImportModel {
	m := ImportModel{
		ledgerSvc:   ledgerSvc,
		importSvc:   importSvc,
		portfolioID: portfolioID,
	}
	m.form = m.newForm()

	return m
}

func (m *ImportModel) newForm() *huh.Form {
	m.formPath = ""

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("B3 export file").
				Placeholder("negociacao.csv").
				Value(&m.formPath).
				Validate(func(s string) error {
					if _, err := os.Stat(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("file not found")
					}

					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ImportModel) Title() string     { return "Import" }
func (m ImportModel) ShortHelp() string { return "Enter: import | Esc: back" }

func (m ImportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case importDoneMsg:
		m.importing = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Imported %d entries", msg.imported)
		}

		m.form = m.newForm()

		return m, m.form.Init()

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.importing {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.importing = true

	return m, m.importCmd()
}

func (m ImportModel) View() string {
	content := "Import B3 Export\n\n" + m.form.View()

	if m.importing {
		content = "Importing..."
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

type importDoneMsg struct {
	imported int
	err      error
}

func (m ImportModel) importCmd() tea.Cmd {
	path := strings.TrimSpace(m.form.GetString("path"))

	return func() tea.Msg {
		file, err := os.Open(path)
		if err != nil {
			return importDoneMsg{err: err}
		}
		defer file.Close()

		params, err := m.importSvc.Import(importer.BrokerB3, file)
		if err != nil {
			return importDoneMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		txs, err := m.ledgerSvc.AppendBatch(ctx, m.portfolioID, params)
		if err != nil {
			return importDoneMsg{err: err}
		}

		return importDoneMsg{imported: len(txs)}
	}
}
