package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"household-tracker/internal/auth"
	"household-tracker/internal/config"
	apphttp "household-tracker/internal/http"
	"household-tracker/internal/repository/sqlite"
	"household-tracker/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, keeping %s", cfg.Log.Level, logger.GetLevel())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	categoryRepo := sqlite.NewCategoryRepository(db)
	ledgerRepo := sqlite.NewLedgerEntryRepository(db)
	if err := sqlite.InitAll(ctx, userRepo, categoryRepo, ledgerRepo); err != nil {
		logger.Fatalf("init repositories: %v", err)
	}

	userService := service.NewUserService(userRepo, cfg.Auth.RegisterPassword)
	categoryService := service.NewCategoryService(categoryRepo)
	ledgerService := service.NewLedgerService(ledgerRepo, categoryRepo)
	if cfg.Auth.RegisterPassword == "" {
		logger.Warn("auth registration password is empty; self-registration is disabled")
	}

	codec, err := auth.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, auth.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		logger.Fatalf("token codec: %v", err)
	}

	policy, err := buildPolicy(cfg, logger)
	if err != nil {
		logger.Fatalf("authorization policy: %v", err)
	}

	login := auth.NewLoginEndpoint(auth.NewCredentialVerifier(userRepo), codec, logger)
	federated := auth.NewFederatedLoginCallback(userService, codec, cfg.OAuth.LandingPath, cfg.OAuth.FailurePath, logger)
	oauth := auth.NewOAuth2Login(auth.OAuth2Settings{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		AuthURL:      cfg.OAuth.AuthURL,
		TokenURL:     cfg.OAuth.TokenURL,
		UserInfoURL:  cfg.OAuth.UserInfoURL,
		RedirectURL:  cfg.OAuth.RedirectURL,
		Scopes:       cfg.OAuth.Scopes,
		SecureCookie: cfg.OAuth.SecureCookie,
	}, federated, logger)
	if !cfg.FederatedLoginEnabled() {
		logger.Info("oauth client id not set; federated login disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, ledgerService, categoryService, codec, login, oauth, policy, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildPolicy(cfg config.Config, logger *logrus.Logger) (*auth.Policy, error) {
	defaultAccess, err := auth.ParseAccess(cfg.Security.DefaultPolicy)
	if err != nil {
		return nil, err
	}

	patterns := cfg.Security.PublicPaths
	if len(patterns) == 0 {
		patterns = auth.DefaultPublicPatterns()
	}
	policy, err := auth.NewPolicy(auth.PublicRules(patterns...), defaultAccess)
	if err != nil {
		return nil, err
	}
	if policy.DefaultAccess() == auth.AccessPublic {
		logger.Warn("security default policy is allow: unmatched routes are reachable without a token")
	}
	logger.WithFields(logrus.Fields{
		"public_patterns": len(patterns),
		"default_access":  policy.DefaultAccess(),
	}).Info("authorization policy loaded")
	return policy, nil
}
