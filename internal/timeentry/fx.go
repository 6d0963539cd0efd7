package timeentry

import (
	"go.uber.org/fx"

	"github.com/atelierlab/devisio/internal/timeentry/repository"
	"github.com/atelierlab/devisio/internal/timeentry/service"
)

var Module = fx.Module("timeentry.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
