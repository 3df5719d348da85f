// Package app wires the skinshop: infrastructure from bootstrap, the
// catalog, pricing and session backends, the checkout flow and its
// Telegram handlers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/m3rciful/skinshop/core/bootstrap"
	"github.com/m3rciful/skinshop/core/cmd"
	"github.com/m3rciful/skinshop/core/logger"
	tg "github.com/m3rciful/skinshop/core/telegram"
	"github.com/m3rciful/skinshop/core/telegram/state"
	"github.com/m3rciful/skinshop/shop/catalog"
	"github.com/m3rciful/skinshop/shop/config"
	"github.com/m3rciful/skinshop/shop/flow"
	"github.com/m3rciful/skinshop/shop/handlers"
	"github.com/m3rciful/skinshop/shop/pricing"
)

// App is the assembled bot. It implements cmd.TelegramApp and io.Closer.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	store    state.Store
	handlers *handlers.Handlers
	registry *tg.Registry
	metrics  *metricsServer
}

var _ cmd.TelegramApp = (*App)(nil)

// LoadConfig adapts config.Load to cmd.Options.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap brings up the infrastructure described by cfg and assembles the App.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	redisOpts, err := cfg.Redis.Options()
	if err != nil {
		return nil, fmt.Errorf("app: redis url: %w", err)
	}
	var seeders []bootstrap.Seeder
	if cfg.Shop.SeedFile != "" {
		seeders = append(seeders, catalog.Seeder(cfg.Shop.SeedFile))
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Redis:    redisOpts,
		Seeders:  seeders,
	})
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, infra, nil)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return a, nil
}

// New assembles the App over initialized infrastructure. A nil doer uses a
// fasthttp client sized for the pricing provider.
func New(cfg *config.Config, infra *bootstrap.Result, doer pricing.Doer) (*App, error) {
	if cfg == nil || infra == nil {
		return nil, errors.New("app: config and infrastructure are required")
	}

	var store state.Store
	if infra.Redis != nil {
		store = state.NewRedisStore(infra.Redis, cfg.Redis.Prefix, cfg.Redis.TTL)
	} else {
		logger.TWire.Warn("sessions kept in memory",
			slog.String("event", "session.memory"),
		)
		store = state.NewMemoryStore()
	}

	if doer == nil {
		doer = &fasthttp.Client{
			Name:                "skinshop",
			MaxConnsPerHost:     16,
			ReadTimeout:         cfg.Pricing.Timeout,
			WriteTimeout:        cfg.Pricing.Timeout,
			MaxIdleConnDuration: time.Minute,
		}
	}

	machine, err := flow.New(flow.Options{
		Store:    store,
		Catalog:  catalog.NewStore(infra.DB),
		Pricing:  pricing.New(doer, cfg.Pricing),
		Methods:  cfg.MethodNames(),
		Currency: cfg.Payments.Currency,
	})
	if err != nil {
		return nil, err
	}

	methods := make([]handlers.PaymentMethod, len(cfg.Payments.Methods))
	for i, m := range cfg.Payments.Methods {
		methods[i] = handlers.PaymentMethod{Name: m.Name, Label: m.Label, Token: m.Token}
	}
	h, err := handlers.New(handlers.Options{
		Machine: machine,
		Store:   store,
		Methods: methods,
		Invoice: handlers.InvoiceOptions{
			Description:    cfg.Shop.InvoiceDescription,
			StartParameter: cfg.Shop.StartParameter,
		},
		SupportContact: cfg.Shop.SupportContact,
		AdminIDs:       cfg.Telegram.AdminIDs,
	})
	if err != nil {
		return nil, err
	}

	reg := tg.NewRegistry()
	if err := h.Register(reg); err != nil {
		return nil, err
	}
	return &App{cfg: cfg, infra: infra, store: store, handlers: h, registry: reg}, nil
}

// TelegramRunOptions returns the middleware chain, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	mws := tg.DefaultMiddlewares(&a.cfg.Config, a.handlers.OnLimited)
	mws = append(mws, tg.Middleware{Name: "session", Use: state.WithSession(a.store)})

	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: mws,
		Routes:      a.handlers.Routes(a.registry),
		OnError:     a.handlers.OnError,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	if addr := a.cfg.Metrics.Listen; addr != "" {
		m, err := startMetrics(ctx, addr)
		if err != nil {
			return fmt.Errorf("app: metrics listener: %w", err)
		}
		a.metrics = m
	}
	a.handlers.NotifyAdmins(ctx, rt.Bot)
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	if a.metrics == nil {
		return nil
	}
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := a.metrics.Close(sctx)
	a.metrics = nil
	return err
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	return a.infra.Close()
}
