package quote

import (
	"go.uber.org/fx"

	"github.com/atelierlab/devisio/internal/quote/repository"
	"github.com/atelierlab/devisio/internal/quote/service"
)

var Module = fx.Module("quote.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
