package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/n9te9/go-graphql-rest-gateway/gateway"
	"github.com/n9te9/go-graphql-rest-gateway/metrics"
	"github.com/n9te9/go-graphql-rest-gateway/registry"
	"github.com/n9te9/go-graphql-rest-gateway/service"
	"github.com/n9te9/go-graphql-rest-gateway/store"
	"github.com/n9te9/go-graphql-rest-gateway/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const (
	registrationPath = "/upstreams/registration"
	shutdownTimeout  = 5 * time.Second
)

type Component string

const (
	ComponentPosts    Component = "posts"
	ComponentComments Component = "comments"
	ComponentGateway  Component = "gateway"
)

var allComponents = []Component{ComponentPosts, ComponentComments, ComponentGateway}

// ParseComponents maps command arguments to components. No arguments selects all.
func ParseComponents(args []string) ([]Component, error) {
	if len(args) == 0 {
		return allComponents, nil
	}

	var components []Component
	for _, arg := range args {
		c := Component(arg)
		if !slices.Contains(allComponents, c) {
			return nil, fmt.Errorf("unknown component %q", arg)
		}
		if !slices.Contains(components, c) {
			components = append(components, c)
		}
	}
	return components, nil
}

// Dependencies are the shared resources handed to every component.
type Dependencies struct {
	Store    store.Store
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Handlers builds the root handler of each requested component. The gateway's
// registry applies re-registered upstreams until ctx is done.
func Handlers(ctx context.Context, settings Settings, components []Component, deps Dependencies) (map[Component]http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	handlers := make(map[Component]http.Handler, len(components))
	for _, c := range components {
		var h http.Handler
		switch c {
		case ComponentPosts:
			h = service.NewPostsHandler(deps.Store, deps.Logger, deps.Metrics)
		case ComponentComments:
			h = service.NewCommentsHandler(deps.Store, settings.Comments, deps.Logger, deps.Metrics)
		case ComponentGateway:
			gw, err := gatewayHandler(ctx, settings, deps)
			if err != nil {
				return nil, err
			}
			h = gw
		default:
			return nil, fmt.Errorf("unknown component %q", c)
		}

		handlers[c] = withObservability(string(c), h, settings, deps.Gatherer)
	}

	return handlers, nil
}

func gatewayHandler(ctx context.Context, settings Settings, deps Dependencies) (http.Handler, error) {
	opts := []gateway.Option{
		gateway.WithLogger(deps.Logger),
		gateway.WithMetrics(deps.Metrics),
	}
	if settings.Opentelemetry.Tracing.Enable {
		opts = append(opts, gateway.WithTransport(otelhttp.NewTransport(http.DefaultTransport)))
	}

	build := func(upstreams gateway.Upstreams) (http.Handler, error) {
		next := settings.Gateway
		next.Upstreams = upstreams
		return gateway.NewGateway(next, opts...)
	}

	initial, err := build(settings.Gateway.Upstreams)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway: %w", err)
	}

	reg := registry.NewRegistry(settings.Gateway.Upstreams, initial, build, deps.Logger)
	go reg.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle(settings.Gateway.Endpoint, reg)
	mux.HandleFunc(registrationPath, reg.RegisterUpstreams)
	return mux, nil
}

func withObservability(component string, h http.Handler, settings Settings, gatherer prometheus.Gatherer) http.Handler {
	if settings.Opentelemetry.Tracing.Enable {
		h = otelhttp.NewHandler(h, component)
	}
	if !settings.Metrics.Enable || gatherer == nil {
		return h
	}

	path := settings.Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler(gatherer))
	mux.Handle("/", h)
	return mux
}

func portOf(settings Settings, c Component) int {
	switch c {
	case ComponentPosts:
		return settings.Posts.Port
	case ComponentComments:
		return settings.Comments.Port
	default:
		return settings.Gateway.Port
	}
}

func openStore(settings Settings, logger *slog.Logger) (store.Store, error) {
	ds := store.SeedDataset()
	if settings.Storage.DataFile != "" {
		loaded, err := store.LoadDataset(settings.Storage.DataFile)
		if err != nil {
			return nil, err
		}
		ds = loaded
	}

	for _, d := range store.CheckIntegrity(ds) {
		logger.Warn("dataset integrity defect", "defect", d.String())
	}

	return store.Open(settings.Storage, ds)
}

// Run serves the requested components until ctx is cancelled or the process receives
// SIGTERM or an interrupt.
func Run(ctx context.Context, settings Settings, components []Component) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer stop()

	logger := NewLogger(os.Stderr, settings.Log)

	shutdownTracing, err := telemetry.Setup(ctx, settings.Gateway.ServiceName, settings.Opentelemetry)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("failed to shut down tracing", "error", err)
		}
	}()

	deps := Dependencies{Logger: logger}
	if settings.Metrics.Enable {
		reg := prometheus.NewRegistry()
		deps.Metrics = metrics.NewMetrics(reg)
		deps.Gatherer = reg
	}

	if slices.Contains(components, ComponentPosts) || slices.Contains(components, ComponentComments) {
		st, err := openStore(settings, logger)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()
		deps.Store = st
	}

	handlers, err := Handlers(ctx, settings, components, deps)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range components {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", portOf(settings, c)),
			Handler:           handlers[c],
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			logger.Info("listening", "component", c, "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", c, err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		})
	}

	err = g.Wait()
	logger.Info("servers stopped")
	return err
}
