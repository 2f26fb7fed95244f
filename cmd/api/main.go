package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sweetshop/internal/config"
	"sweetshop/internal/handler"
	"sweetshop/internal/infra/cache"
	"sweetshop/internal/infra/db"
	"sweetshop/internal/infra/memory"
	infraRepo "sweetshop/internal/infra/repository"
	"sweetshop/internal/observability"
	"sweetshop/internal/repository"
	"sweetshop/internal/server"
	"sweetshop/internal/usecase"
	auth "sweetshop/internal/usecase/auth_usecase"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ストアの実装をまとめたもの
type stores struct {
	accounts repository.AccountRepository
	sweets   repository.SweetRepository
	tx       repository.TransactionManager
	pinger   handler.Pinger // memoryのときはnil
	close    func() error
}

func main() {
	//.envはあれば読む（本番は環境変数のみ）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Fatal("load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := observability.NewLogger(cfg.LogLevel, cfg.GoEnv)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	//DB接続
	st, err := openStores(ctx, cfg, log, metrics)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.WithError(err).Warn("close store")
		}
	}()

	throttle, closeThrottle := loginThrottle(ctx, cfg, log)
	defer closeThrottle()

	policy := auth.NewAdminPolicy(cfg.AdminKey)
	if !policy.Enabled() {
		log.Warn("ADMIN_KEY is empty: only the first registered account becomes admin")
	}

	//usecaseに渡す部品
	clock := auth.SystemClock{}
	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, clock, auth.UUIDGenerator{})

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(st.tx, hasher, tokens, policy, clock)
	loginUC, err := auth.NewLoginUsecase(st.accounts, hasher, tokens, throttle, log)
	if err != nil {
		return err
	}
	sweetUC := usecase.NewSweetUsecase(st.sweets, st.tx, metrics)

	//Handler生成
	e := server.New(server.Deps{
		Log:          log,
		Metrics:      metrics,
		Authn:        auth.NewAuthenticator(tokens, st.accounts),
		AllowOrigins: cfg.CORSAllowOrigins,
		Info:         handler.NewInfoHandler(st.pinger, log),
		Auth:         handler.NewAuthHandler(registerUC, loginUC),
		Sweets:       handler.NewSweetHandler(sweetUC),
	})

	//Server起動
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": cfg.Addr(), "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStores(ctx context.Context, cfg config.Config, log *logrus.Logger, metrics *observability.Metrics) (stores, error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store: data is lost on restart")
		s := memory.NewStore()
		return stores{
			accounts: s.Accounts(),
			sweets:   s.Sweets(),
			tx:       s,
			close:    func() error { return nil },
		}, nil
	}

	gormDB, err := db.Connect(ctx, cfg, log)
	if err != nil {
		return stores{}, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return stores{}, err
	}
	if err := db.Migrate(gormDB); err != nil {
		_ = sqlDB.Close()
		return stores{}, err
	}
	metrics.RegisterDBStats(sqlDB)

	return stores{
		accounts: infraRepo.NewAccountGormRepository(gormDB),
		sweets:   infraRepo.NewSweetGormRepository(gormDB),
		tx:       infraRepo.NewTxManagerGorm(gormDB),
		pinger:   sqlDB,
		close:    sqlDB.Close,
	}, nil
}

// REDIS_URLがない・つながらないときは制限なしで動かす
func loginThrottle(ctx context.Context, cfg config.Config, log *logrus.Logger) (auth.LoginThrottle, func()) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL is empty: login throttling disabled")
		return auth.NoLoginThrottle{}, func() {}
	}

	rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("redis unavailable: login throttling disabled")
		return auth.NoLoginThrottle{}, func() {}
	}
	return cache.NewRedisLoginThrottle(rdb, cfg.LoginMaxAttempts, cfg.LoginWindow), func() {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Warn("close redis")
		}
	}
}
