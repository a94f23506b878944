package importer

import (
	"io"

	"github.com/mtrindade/carteira/internal/ledger"
)

type Broker string

const (
	BrokerB3 Broker = "b3"
)

type Importer interface {
	Parse(r io.Reader) ([]ledger.CreateParams, error)
}
