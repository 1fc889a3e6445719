package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/wdlcache/internal/adapters/integrity" //nolint:depguard // Wired in app layer
	"go.trai.ch/wdlcache/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/wdlcache/internal/adapters/migration" //nolint:depguard // Wired in app layer
	"go.trai.ch/wdlcache/internal/adapters/store"     //nolint:depguard // Wired in app layer
	"go.trai.ch/wdlcache/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/wdlcache/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/wdlcache/internal/core/ports"
	"go.trai.ch/wdlcache/internal/engine/resolver"
	"go.trai.ch/wdlcache/internal/engine/symbols"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components holds the wired application and the logger used to report
// failures outside of command execution.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			logger.NodeID,
			store.NodeID,
			resolver.NodeID,
			symbols.NodeID,
			integrity.NodeID,
			migration.NodeID,
			watcher.NodeID,
			telemetry.RecorderNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	persistent, err := graft.Dep[ports.PersistentStore](ctx)
	if err != nil {
		return nil, err
	}

	res, err := graft.Dep[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	sym, err := graft.Dep[*symbols.Provider](ctx)
	if err != nil {
		return nil, err
	}

	validator, err := graft.Dep[*integrity.Validator](ctx)
	if err != nil {
		return nil, err
	}

	migrations, err := graft.Dep[*migration.Engine](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[*telemetry.Recorder](ctx)
	if err != nil {
		return nil, err
	}

	return New(log, persistent, res, sym, validator, migrations, w, recorder), nil
}
