package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	clientdomain "github.com/atelierlab/devisio/internal/client/domain"
	"github.com/atelierlab/devisio/internal/config"
	contractdomain "github.com/atelierlab/devisio/internal/contract/domain"
	documentdomain "github.com/atelierlab/devisio/internal/document/domain"
	financedomain "github.com/atelierlab/devisio/internal/finance/domain"
	messagedomain "github.com/atelierlab/devisio/internal/message/domain"
	projectdomain "github.com/atelierlab/devisio/internal/project/domain"
	quotedomain "github.com/atelierlab/devisio/internal/quote/domain"
	"github.com/atelierlab/devisio/internal/seed"
	timeentrydomain "github.com/atelierlab/devisio/internal/timeentry/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql are dev/self-host conveniences; gorm's
			// migrator keeps them in shape without SQL files per dialect.
			if err := autoMigrate(conn); err != nil {
				return err
			}
		}

		if cfg.DefaultOrgID != 0 {
			return seed.EnsureMainWorkspaceWithID(conn, cfg.DefaultOrgID)
		}
		return seed.EnsureMainWorkspace(conn)
	}),
)

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&seed.Workspace{},
		&clientdomain.Client{},
		&projectdomain.Project{},
		&quotedomain.Quote{},
		&quotedomain.Profile{},
		&quotedomain.AbaqueEntry{},
		&quotedomain.CostingCategory{},
		&quotedomain.CostingActivity{},
		&quotedomain.CostingComponent{},
		&quotedomain.TransverseLevel{},
		&quotedomain.TransverseActivity{},
		&contractdomain.Contract{},
		&contractdomain.ContractProfile{},
		&timeentrydomain.TimeEntry{},
		&messagedomain.Message{},
		&documentdomain.Document{},
		&financedomain.Snapshot{},
	)
}
