package importer

import (
	"fmt"
	"io"

	"github.com/mtrindade/carteira/internal/importer/b3"
	"github.com/mtrindade/carteira/internal/ledger"
)

type Service struct {
	b3Importer Importer
}

func NewService() *Service {
	return &Service{
		b3Importer: b3.NewParser(),
	}
}

func (s *Service) Import(broker Broker, r io.Reader) ([]ledger.CreateParams, error) {
	var importer Importer

	switch broker {
	case BrokerB3:
		importer = s.b3Importer
	default:
		return nil, fmt.Errorf("unknown broker: %s", broker)
	}

	return importer.Parse(r)
}
