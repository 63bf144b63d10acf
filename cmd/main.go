package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hellofresh/health-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennymark/bossman/internal/api"
	"github.com/kennymark/bossman/internal/auth"
	"github.com/kennymark/bossman/internal/db"
	"github.com/kennymark/bossman/internal/model"
	"github.com/kennymark/bossman/internal/repository"
	"github.com/kennymark/bossman/internal/service"
	"github.com/kennymark/bossman/pkg/config"
	"github.com/kennymark/bossman/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	mintTokenFor  = flag.String("mint-token", "", "print a signed token for the given user id and exit")
	mintTokenRole = flag.String("mint-role", string(model.UserRoleUser), "role claim for -mint-token (user or admin)")
)

func main() {
	flag.Parse()

	logger, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	auth.TokenSecretKey = cfg.TokenSecret

	// Token issuance is out-of-band: there is no login endpoint, operators
	// mint tokens from the shared secret instead.
	if *mintTokenFor != "" {
		token, err := auth.GenerateToken(*mintTokenFor, model.UserRole(*mintTokenRole), cfg.TokenTTL)
		if err != nil {
			logger.Fatal("failed to mint token", zap.Error(err))
		}
		fmt.Println(token)
		return
	}

	logger.Info("starting application")

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err = pool.Ping(context.Background()); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	logger.Info("database connection established")

	transactor := db.NewPgxTransactor(pool)

	teamRepo := repository.NewPgxTeamRepository(pool)
	membershipRepo := repository.NewPgxMembershipRepository(pool)
	invitationRepo := repository.NewPgxInvitationRepository(pool)
	userRepo := repository.NewPgxUserRepository(pool)
	auditRepo := repository.NewPgxAuditRepository(pool)

	accessService := service.NewAccessService().WithMembershipRepo(membershipRepo)

	auditService := service.NewAuditService().WithAuditRepo(auditRepo)

	teamService := service.NewTeamService(transactor).
		WithTeamRepo(teamRepo).
		WithMembershipRepo(membershipRepo).
		WithInvitationRepo(invitationRepo).
		WithUserRepo(userRepo).
		WithAccessResolver(accessService).
		WithAuditRecorder(auditService)

	userService := service.NewUserService().
		WithUserRepo(userRepo).
		WithTeamRepo(teamRepo)

	healthChecker := api.MustNewHealthChecker(health.Config{
		Name:    "postgres",
		Timeout: 2 * time.Second,
		Check: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	})

	e := echo.New()

	handler := api.NewHandler(logger).
		WithTeamService(teamService).
		WithUserService(userService).
		WithAuditService(auditService).
		WithAccessResolver(accessService).
		WithHealthChecker(healthChecker)

	handler.RegisterRoutes(e)

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced server shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
