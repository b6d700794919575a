//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/lukasdietrich/briefbote/internal/api"
	"github.com/lukasdietrich/briefbote/internal/certs"
	"github.com/lukasdietrich/briefbote/internal/crypto"
	"github.com/lukasdietrich/briefbote/internal/database"
	"github.com/lukasdietrich/briefbote/internal/delivery"
	"github.com/lukasdietrich/briefbote/internal/mailer"
	"github.com/lukasdietrich/briefbote/internal/metrics"
	"github.com/lukasdietrich/briefbote/internal/queue"
	"github.com/lukasdietrich/briefbote/internal/storage"
	"github.com/lukasdietrich/briefbote/internal/tenants"
)

var wireSet = wire.NewSet(
	wire.Struct(new(apiCommand), "*"),
	wire.Struct(new(workerCommand), "*"),
	wire.Struct(new(sweepCommand), "*"),
	wire.Struct(new(shellCommand), "*"),

	database.WireSet,
	crypto.WireSet,
	storage.WireSet,
	tenants.WireSet,
	queue.WireSet,
	mailer.WireSet,
	delivery.WireSet,
	api.WireSet,
	certs.WireSet,
	metrics.WireSet,
)

func newAPICommand(info api.BuildInfo) (*apiCommand, func(), error) {
	panic(wire.Build(wireSet))
}

func newWorkerCommand() (*workerCommand, func(), error) {
	panic(wire.Build(wireSet))
}

func newSweepCommand() (*sweepCommand, func(), error) {
	panic(wire.Build(wireSet))
}

func newShellCommand() (*shellCommand, func(), error) {
	panic(wire.Build(wireSet))
}
