package b3

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	enc "github.com/mtrindade/carteira/internal/encoding"
	"github.com/mtrindade/carteira/internal/ledger"
)

// Parser reads B3 investor-area CSV exports and produces ledger entry params.
// It auto-detects which export (negociação, movimentação) is being read by
// matching column headers against known profiles.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]ledger.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, colMap, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching B3 format found: expected columns for negociação or movimentação")
	}

	return parseRows(profile, colMap, rows[headerIdx+1:], headerIdx+1)
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

// matchesProfile checks if all required columns of a profile are present.
func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows extracts ledger entries from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the original file (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]ledger.CreateParams, error) {
	dateIdx := cols[p.DateCol]
	sideIdx := cols[p.SideCol]
	instrumentIdx := cols[p.InstrumentCol]
	quantityIdx := cols[p.QuantityCol]
	priceIdx := cols[p.PriceCol]

	var entries []ledger.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		date, ok := parseDate(row, dateIdx)
		if !ok {
			continue
		}

		kind, ok := p.sides[strings.ToLower(cellValue(row, sideIdx))]
		if !ok {
			// Non-trade movement (dividend, bonus, fee).
			continue
		}

		instrument := instrumentCode(cellValue(row, instrumentIdx))
		if instrument == "" {
			return nil, fmt.Errorf("row %d: missing instrument code", rowNum)
		}

		quantity, err := parseBrazilianNumber(cellValue(row, quantityIdx))
		if err != nil || quantity <= 0 {
			continue
		}

		price, err := parseBrazilianNumber(cellValue(row, priceIdx))
		if err != nil || price <= 0 {
			continue
		}

		entries = append(entries, ledger.CreateParams{
			Instrument: instrument,
			Kind:       kind,
			AssetClass: classify(instrument),
			Price:      price,
			Quantity:   quantity,
			OccurredOn: date,
		})
	}

	return entries, nil
}

// parseDate tries to parse a date from the given cell index.
// Returns false for empty cells or unparseable values (footer rows, etc).
func parseDate(row []string, idx int) (time.Time, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return time.Time{}, false
	}

	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// instrumentCode extracts the ticker from an instrument cell. The
// movimentação export writes "PETR4 - PETROBRAS PN"; the negociação export
// writes the bare code.
func instrumentCode(s string) string {
	code, _, _ := strings.Cut(s, " - ")
	return strings.TrimSpace(code)
}

// classify guesses the asset class from the ticker. B3 listed funds carry
// the "11" series suffix.
func classify(instrument string) ledger.AssetClass {
	if strings.HasSuffix(instrument, "11") {
		return ledger.ClassFund
	}

	return ledger.ClassEquity
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
