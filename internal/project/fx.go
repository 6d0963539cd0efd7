package project

import (
	"go.uber.org/fx"

	"github.com/atelierlab/devisio/internal/project/repository"
	"github.com/atelierlab/devisio/internal/project/service"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
