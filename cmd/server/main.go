package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/communitylink/membership-api/internal/bootstrap"
	"github.com/communitylink/membership-api/internal/config"
	"github.com/communitylink/membership-api/internal/identity"
	"github.com/communitylink/membership-api/internal/member"
	"github.com/communitylink/membership-api/internal/notify"
	"github.com/communitylink/membership-api/internal/payment"
	"github.com/communitylink/membership-api/internal/router"
	"github.com/communitylink/membership-api/internal/shared/database"
	"github.com/communitylink/membership-api/internal/shared/logger"
	"github.com/communitylink/membership-api/internal/shared/validator"
)

func main() {
	env := parseFlags()

	logger.Setup(env, "")
	slog.Info("서버 초기화 시작", "env", env)

	if err := run(env); err != nil {
		slog.Error("서버 초기화 실패", "error", err)
		os.Exit(1)
	}

	slog.Info("서버 종료 완료", "env", env)
}

func parseFlags() string {
	env := flag.String("env", "local", "Environment (local|dev|production)")
	flag.Parse()
	return *env
}

func run(env string) error {
	// Root context: cancelled on shutdown so background jobs stop with the server
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("설정 로드 실패: %w", err)
	}
	if cfg.App.LogLevel != "" {
		logger.Setup(cfg.App.Env, cfg.App.LogLevel)
	}
	slog.Info("환경 변수 로드 성공")

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("데이터베이스 연결 실패: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("데이터베이스 종료 실패", "error", err)
		}
	}()

	deps, err := buildDependencies(ctx, cfg, db)
	if err != nil {
		return err
	}

	srv, sweeper, err := setupServer(cfg, db, deps)
	if err != nil {
		return err
	}

	var jobs sync.WaitGroup
	jobs.Add(1)
	go func() {
		defer jobs.Done()
		sweeper.Run(ctx)
	}()

	err = startWithGracefulShutdown(ctx, srv, cfg.Server.GracefulTimeout)
	cancel()
	jobs.Wait()
	return err
}

// buildDependencies wires the external systems selected by configuration
func buildDependencies(ctx context.Context, cfg *config.Config, db *database.DB) (router.Dependencies, error) {
	provider := identity.NewLocalProvider(db.DB, identity.NewAccountRepository())
	if cfg.Membership.AdminEmail != "" {
		if _, err := provider.EnsureAdmin(ctx, cfg.Membership.AdminEmail, cfg.Membership.AdminPassword); err != nil {
			return router.Dependencies{}, fmt.Errorf("관리자 계정 생성 실패: %w", err)
		}
		slog.Info("관리자 계정 확인 완료", "email", logger.MaskEmail(cfg.Membership.AdminEmail))
	}

	sender, err := newSender(ctx, cfg.Email)
	if err != nil {
		return router.Dependencies{}, err
	}

	return router.Dependencies{
		Processor: payment.NewStripeProcessor(cfg.Payment.StripeSecretKey, cfg.Payment.StripeWebhookSecret),
		Identity:  provider,
		Notifier: notify.Multi{
			notify.NewEmailNotifier(sender, cfg.Membership.Organization, cfg.Membership.PortalURL),
			notify.NewCertificateTrigger(),
		},
	}, nil
}

func newSender(ctx context.Context, cfg config.EmailConfig) (notify.Sender, error) {
	switch cfg.Provider {
	case config.EmailProviderResend:
		return notify.NewResendSender(cfg.ResendAPIKey, cfg.From), nil
	case config.EmailProviderSES:
		sender, err := notify.NewSESSender(ctx, cfg.AWSRegion, cfg.From)
		if err != nil {
			return nil, fmt.Errorf("SES 설정 실패: %w", err)
		}
		return sender, nil
	default:
		slog.Warn("이메일 발송 비활성화", "provider", cfg.Provider)
		return notify.NewNoopSender(), nil
	}
}

func setupServer(cfg *config.Config, db *database.DB, deps router.Dependencies) (*bootstrap.Server, *member.ExpirySweeper, error) {
	ginEngine := bootstrap.NewBootstrap(cfg).SetupEngine()

	if err := validator.RegisterAll(); err != nil {
		return nil, nil, fmt.Errorf("공통 Validator 등록 실패: %w", err)
	}

	sweeper, err := router.Setup(ginEngine, cfg, db, deps)
	if err != nil {
		return nil, nil, fmt.Errorf("라우터 설정 실패: %w", err)
	}

	slog.Info("서버 설정 완료", "env", cfg.App.Env)
	return bootstrap.New(cfg, ginEngine), sweeper, nil
}

// startWithGracefulShutdown serves until the listener fails or SIGINT/SIGTERM arrives
func startWithGracefulShutdown(ctx context.Context, srv *bootstrap.Server, gracefulTimeout time.Duration) error {
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("서버 오류: %w", err)
		}
		return nil

	case sig := <-quit:
		slog.Info("종료 신호 수신됨", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, gracefulTimeout)
		defer cancel()

		slog.Info("서버 종료 중...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("서버 강제 종료: %w", err)
		}
		return nil
	}
}
