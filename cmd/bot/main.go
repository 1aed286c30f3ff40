package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/remindbot/api/handler"
	"github.com/fastygo/remindbot/domain"
	"github.com/fastygo/remindbot/internal/bot"
	"github.com/fastygo/remindbot/internal/config"
	"github.com/fastygo/remindbot/internal/infrastructure/deadletter"
	"github.com/fastygo/remindbot/internal/infrastructure/monitor"
	"github.com/fastygo/remindbot/internal/infrastructure/telegram"
	"github.com/fastygo/remindbot/internal/middleware"
	"github.com/fastygo/remindbot/internal/router"
	"github.com/fastygo/remindbot/internal/services"
	"github.com/fastygo/remindbot/internal/services/lifecycle"
	"github.com/fastygo/remindbot/pkg/httpcontext"
	"github.com/fastygo/remindbot/pkg/logger"
	"github.com/fastygo/remindbot/repository/memory"
	taskUC "github.com/fastygo/remindbot/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.Listen(context.Background())
	defer cancel()

	tgClient, err := telegram.NewClient(telegram.Config{
		Token:   cfg.Telegram.Token,
		APIURL:  cfg.Telegram.APIURL,
		Timeout: cfg.Telegram.RequestTimeout,
	})
	if err != nil {
		zapLogger.Fatal("telegram client setup failed", zap.Error(err))
	}

	// Tasks live in memory only; a restart drops them.
	taskRepo := memory.NewTaskRepository()
	taskUseCase := taskUC.New(taskRepo, domain.SystemClock, zapLogger)

	var (
		failures    services.FailureRecorder
		deadLetter  monitor.Sizer
		undelivered apiHandler.UndeliveredSource
	)
	var journal *deadletter.Store
	if cfg.DeadLetter.Path != "" {
		journal, err = deadletter.Open(cfg.DeadLetter.Path, "deadletter")
		if err != nil {
			zapLogger.Fatal("failed to open dead letter journal", zap.Error(err))
		}
		failures, deadLetter, undelivered = journal, journal, journal
		manager.Register("dead_letter", func(ctx context.Context) error {
			return journal.Close()
		})
	}

	scheduler := services.NewScheduler(
		taskRepo,
		tgClient,
		failures,
		domain.SystemClock,
		zapLogger,
		services.SchedulerConfig{
			Interval:      cfg.Scheduler.Interval,
			NotifyTimeout: cfg.Scheduler.NotifyTimeout,
			Workers:       cfg.Scheduler.Workers,
		},
	)
	if journal != nil {
		retention := cfg.DeadLetter.Retention
		if err := scheduler.Every("dead_letter_cleanup", time.Hour, func(ctx context.Context) error {
			removed, err := journal.Cleanup(time.Now().Add(-retention))
			if removed > 0 {
				zapLogger.Info("dead letter entries expired", zap.Int("removed", removed))
			}
			return err
		}); err != nil {
			zapLogger.Fatal("failed to schedule dead letter cleanup", zap.Error(err))
		}
	}
	scheduler.Start()
	manager.Register("scheduler", func(ctx context.Context) error {
		scheduler.Stop(ctx)
		return nil
	})

	mon := monitor.New(tgClient, deadLetter, taskRepo, scheduler, cfg.Monitor.Interval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	commands := bot.NewCommands(taskUseCase, zapLogger)
	dispatcher := bot.NewDispatcher(commands.Unknown)
	commands.Register(dispatcher)

	poller := bot.New(tgClient, dispatcher, zapLogger, bot.Config{
		PollTimeout:    cfg.Telegram.PollTimeout,
		RequestTimeout: cfg.Context.RequestTimeout,
	})
	poller.Start(appCtx)
	manager.Register("bot", poller.Stop)

	if cfg.HTTP.Enabled {
		ctxAdapter := httpcontext.NewAdapter(appCtx, cfg.Context.RequestTimeout)
		handlers := router.Handlers{
			Task:        apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
			Undelivered: apiHandler.NewUndeliveredHandler(undelivered, ctxAdapter, zapLogger),
			Health:      apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
		}
		r := router.New(handlers, middleware.JWTAuth(cfg.JWT.Secret, zapLogger))

		server := &fasthttp.Server{
			Handler:      r.Handler,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
			Name:         cfg.AppName,
		}

		go func() {
			zapLogger.Info("http api started", zap.String("address", cfg.Address()))
			if err := server.ListenAndServe(cfg.Address()); err != nil {
				zapLogger.Error("http api crashed", zap.Error(err))
				cancel()
			}
		}()

		manager.Register("http_server", func(ctx context.Context) error {
			return server.ShutdownWithContext(ctx)
		})
	}

	zapLogger.Info("remindbot started",
		zap.String("env", cfg.Environment),
		zap.Duration("scheduler_interval", cfg.Scheduler.Interval))

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
