package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/atelierlab/devisio/internal/clock"
	"github.com/atelierlab/devisio/internal/config"
	"github.com/atelierlab/devisio/internal/migration"
	"github.com/atelierlab/devisio/internal/observability"
	"github.com/atelierlab/devisio/internal/scheduler"
	"github.com/atelierlab/devisio/internal/server"
	"github.com/atelierlab/devisio/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
