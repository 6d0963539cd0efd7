package message

import (
	"go.uber.org/fx"

	"github.com/atelierlab/devisio/internal/message/notifier"
	"github.com/atelierlab/devisio/internal/message/repository"
	"github.com/atelierlab/devisio/internal/message/service"
)

var Module = fx.Module("message.service",
	fx.Provide(repository.Provide),
	fx.Provide(notifier.NewLogNotifier),
	fx.Provide(service.New),
)
