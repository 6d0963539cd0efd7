package contract

import (
	"go.uber.org/fx"

	"github.com/atelierlab/devisio/internal/contract/repository"
	"github.com/atelierlab/devisio/internal/contract/service"
)

var Module = fx.Module("contract.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
