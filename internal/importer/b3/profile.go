package b3

import "github.com/mtrindade/carteira/internal/ledger"

// Profile describes the column layout of a B3 investor-area export.
// Adding a new format is just adding a new Profile to the profiles slice.
type Profile struct {
	Name          string
	DateCol       string
	SideCol       string
	InstrumentCol string
	QuantityCol   string
	PriceCol      string

	// sides maps the lowercased side cell to a ledger kind. Rows whose side
	// is not in the map (dividends, bonuses, fees) are skipped.
	sides map[string]ledger.Kind
}

// requiredCols returns the column names that must be present for this profile to match.
func (p Profile) requiredCols() []string {
	return []string{p.DateCol, p.SideCol, p.InstrumentCol, p.QuantityCol, p.PriceCol}
}

var tradeSides = map[string]ledger.Kind{
	"compra": ledger.KindBuy,
	"venda":  ledger.KindSell,
}

var movementSides = map[string]ledger.Kind{
	"credito": ledger.KindBuy,
	"crédito": ledger.KindBuy,
	"debito":  ledger.KindSell,
	"débito":  ledger.KindSell,
}

// profiles is the ordered list of B3 export formats to try during
// auto-detection. More specific profiles come first.
var profiles = []Profile{
	{
		Name:          "negociação",
		DateCol:       "Data do Negócio",
		SideCol:       "Tipo de Movimentação",
		InstrumentCol: "Código de Negociação",
		QuantityCol:   "Quantidade",
		PriceCol:      "Preço",
		sides:         tradeSides,
	},
	{
		Name:          "movimentação",
		DateCol:       "Data",
		SideCol:       "Entrada/Saída",
		InstrumentCol: "Produto",
		QuantityCol:   "Quantidade",
		PriceCol:      "Preço unitário",
		sides:         movementSides,
	},
}
