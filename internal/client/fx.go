package client

import (
	"go.uber.org/fx"

	"github.com/atelierlab/devisio/internal/client/repository"
	"github.com/atelierlab/devisio/internal/client/service"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
