package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecadmin/internal/config"
	"ecadmin/internal/handler"
	"ecadmin/internal/infra/db"
	"ecadmin/internal/infra/migrate"
	"ecadmin/internal/infra/ratelimit"
	infraRepo "ecadmin/internal/infra/repository"
	"ecadmin/internal/logging"
	"ecadmin/internal/server"
	"ecadmin/internal/session"
	"ecadmin/internal/token"
	"ecadmin/internal/usecase"
	auth "ecadmin/internal/usecase/auth_usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	//.envは無くてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続 + マイグレーション
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := migrate.Up(ctx, sqlDB); err != nil {
		return err
	}

	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//ログイン試行制限（REDIS_URLが無ければ制限なし）
	var limiter auth.LoginLimiter = ratelimit.NoopLoginLimiter{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		limiter = ratelimit.NewRedisLoginLimiter(rdb, ratelimit.Config{
			MaxAttempts: cfg.LoginMaxAttempts,
			Cooldown:    cfg.LoginCooldown,
		})
	} else {
		log.Warn("REDIS_URL is not set; login attempts are not limited")
	}

	//JWT（access / refreshは別シークレット）
	tokens := token.NewManager(token.Config{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})

	//Usecase生成
	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	credentials := auth.NewCredentialStore(userRepo, hasher, &uuidGenerator{}, &realClock{})
	issuer := auth.NewTokenIssuer(userRepo, tokens)
	resolver := auth.NewIdentityResolver(userRepo, tokens)

	registerUC := auth.NewRegisterUserUsecase(credentials, issuer)
	loginUC := auth.NewLoginUsecase(credentials, issuer, limiter, log)
	logoutUC := auth.NewLogoutUsecase(userRepo)
	userUC := usecase.NewUserUsecase(userRepo, credentials, txManager, auditRepo)

	//Handler生成
	//Cookieの寿命はtokenと同じ
	cookies := session.NewCookieManager(tokens.AccessTTL(), tokens.RefreshTTL())
	e := server.New(cfg, log, resolver, server.Handlers{
		Auth:      handler.NewAuthHandler(registerUC, loginUC, logoutUC, cookies),
		User:      handler.NewUserHandler(userUC),
		AdminUser: handler.NewAdminUserHandler(userUC),
	})

	return server.Run(ctx, e, cfg.Addr(), log)
}
