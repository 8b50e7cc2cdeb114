package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-llm/internal/config"
	"github.com/rocketscienceinc/tictactoe-llm/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-llm/internal/repository"
	"github.com/rocketscienceinc/tictactoe-llm/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-llm/internal/service"
	"github.com/rocketscienceinc/tictactoe-llm/internal/suggester"
	"github.com/rocketscienceinc/tictactoe-llm/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-llm/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-llm/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// app holds everything RunApp wires together.
type app struct {
	session *usecase.SessionController
	handler http.Handler
	storage *redis.Client
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, logger, conf, reg)
	if err != nil {
		return err
	}
	defer a.close(log)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, a.handler); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

func newApp(ctx context.Context, logger *slog.Logger, conf *config.Config, reg *prometheus.Registry) (*app, error) {
	m := metrics.New(reg)

	policy, err := tictactoe.PolicyByName(conf.Fallback)
	if err != nil {
		return nil, fmt.Errorf("invalid fallback policy: %w", err)
	}

	client, err := suggester.New(logger, conf.Suggester, m)
	if err != nil {
		return nil, fmt.Errorf("could not create suggester client: %w", err)
	}

	bot := service.NewBotService(logger, client, m, service.BotOptions{
		Retries: conf.Suggester.Retries,
		Timeout: conf.Suggester.Timeout,
		Policy:  policy,
	})

	a := &app{}

	var observers []usecase.Observer
	if conf.Redis.Enabled {
		if conf.Redis.GetRedisAddr() == "" {
			return nil, ErrAddrNotFound
		}

		a.storage, err = storage.New(ctx, conf.Redis)
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		snapshotRepo := repository.NewSnapshotRepository(a.storage,
			repository.WithPrefix(conf.Redis.Prefix),
			repository.WithTTL(conf.Redis.TTL),
		)

		publisher := service.NewPublisher(logger, snapshotRepo)
		go publisher.Run(ctx)

		observers = append(observers, publisher)
	}

	a.session = usecase.NewSessionController(logger, bot, m, observers...)
	a.handler = rest.NewRouter(logger, a.session, reg)

	return a, nil
}

func (that *app) close(log *slog.Logger) {
	that.session.Close()

	if that.storage == nil {
		return
	}

	if err := that.storage.Close(); err != nil {
		log.Error("could not close redis storage", "error", err)
	}
}
