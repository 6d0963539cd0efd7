package finance

import (
	"go.uber.org/fx"

	"github.com/atelierlab/devisio/internal/finance/repository"
	"github.com/atelierlab/devisio/internal/finance/service"
)

var Module = fx.Module("finance.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
