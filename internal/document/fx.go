package document

import (
	"go.uber.org/fx"

	"github.com/atelierlab/devisio/internal/config"
	"github.com/atelierlab/devisio/internal/document/blob"
	documentdomain "github.com/atelierlab/devisio/internal/document/domain"
	"github.com/atelierlab/devisio/internal/document/repository"
	"github.com/atelierlab/devisio/internal/document/service"
)

var Module = fx.Module("document.service",
	fx.Provide(repository.Provide),
	fx.Provide(provideBlobStore),
	fx.Provide(service.New),
)

func provideBlobStore(cfg config.Config) (documentdomain.BlobStore, error) {
	return blob.NewFSStore(cfg.DocumentStorageDir)
}
