package app

import (
	"context"

	"github.com/pvictorino/leadline/internal/api"
	"github.com/pvictorino/leadline/internal/bus"
	"github.com/pvictorino/leadline/internal/composer"
	"github.com/pvictorino/leadline/internal/config"
	"github.com/pvictorino/leadline/internal/ingest"
	"github.com/pvictorino/leadline/internal/lock"
	"github.com/pvictorino/leadline/internal/logging"
	"github.com/pvictorino/leadline/internal/outbox"
	"github.com/pvictorino/leadline/internal/status"
	"github.com/pvictorino/leadline/internal/store"
	"github.com/pvictorino/leadline/internal/tui"
	"github.com/pvictorino/leadline/internal/tui/model"
	"github.com/pvictorino/leadline/internal/workspace"
	"github.com/pvictorino/leadline/internal/ws"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved workspace configuration passed to the fx module.
type Params struct {
	Workspace string
	Config    *config.Config
}

// Module composes the full client: storage, API access, the live socket,
// background workers and the TUI shell.
func Module(p Params) fx.Option {
	return fx.Module("leadline",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideAPIClient,
			provideComposer,
			provideSocketClient,
			provideIngestEngine,
			provideSender,
			provideViewModel,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	// File only: the TUI owns the terminal.
	return logging.FileOnly(workspace.LogPath(p.Workspace), p.Workspace)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := workspace.EnsureDir(p.Workspace); err != nil {
		return nil, err
	}
	logger.Info("acquiring workspace lock", zap.String("workspace", p.Workspace))
	l, err := lock.Acquire(workspace.Dir(p.Workspace))
	if err != nil {
		return nil, err
	}
	logger.Info("workspace lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := workspace.DBPath(p.Workspace)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideAPIClient(p Params, logger *zap.Logger) (*api.Client, error) {
	return api.New(p.Config.APIBaseURL, p.Config.Token, logger)
}

func provideComposer(p Params, c *api.Client, b *bus.Bus, logger *zap.Logger) *composer.Composer {
	return composer.New(c, b, p.Config.SenderID, logger)
}

func provideSocketClient(m *status.Machine, logger *zap.Logger) *ws.Client {
	return ws.NewClient(m, logger)
}

func provideIngestEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *ingest.Engine {
	return ingest.NewEngine(db, b, logger)
}

func provideSender(p Params, db *store.DB, c *api.Client, b *bus.Bus, logger *zap.Logger) *outbox.Sender {
	return outbox.NewSender(db, c, b, p.Config.SenderID, logger)
}

func provideViewModel(p Params, c *api.Client, comp *composer.Composer, sock *ws.Client, db *store.DB, b *bus.Bus, logger *zap.Logger) *model.ViewModel {
	return model.NewViewModel(c, comp, sock, db, b, workspace.AttachmentDir(p.Workspace), logger)
}

func provideApp(p Params, vm *model.ViewModel, b *bus.Bus, m *status.Machine) *tui.App {
	return tui.NewApp(tui.Params{
		VM:        vm,
		Bus:       b,
		Machine:   m,
		Workspace: p.Workspace,
		Host:      p.Config.APIBaseURL,
		SenderID:  p.Config.SenderID,
	})
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, ui *tui.App, lk *lock.Lock, db *store.DB, engine *ingest.Engine, sender *outbox.Sender, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			engine.Start(context.Background())
			sender.Start(context.Background())

			ui.SetOnQuit(func() { _ = shutdowner.Shutdown() })
			go func() {
				if err := ui.Run(); err != nil {
					logger.Error("tui exited with error", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			ui.Stop()
			sender.Stop()
			engine.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("leadline stopped")
			return nil
		},
	})
}
