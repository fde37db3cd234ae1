package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shortly-app/shortly/internal/auth"
	"github.com/shortly-app/shortly/internal/db"
	"github.com/shortly-app/shortly/internal/handler"
	"github.com/shortly-app/shortly/internal/repo"
	"github.com/shortly-app/shortly/internal/service"
	"github.com/shortly-app/shortly/internal/slug"
	"github.com/shortly-app/shortly/internal/storage"
	"github.com/shortly-app/shortly/web"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

type Config struct {
	Host        string
	Port        string
	BaseURL     string
	StoreDriver string
	DBPath      string
	AdminCreds  string
	JWTSecret   string
	LogLevel    string
	Debug       bool
	Google      auth.GoogleConfig
}

func newConfigFromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Host:        cmp.Or(os.Getenv("HOST"), "localhost"),
		Port:        cmp.Or(os.Getenv("PORT"), "8080"),
		BaseURL:     cmp.Or(os.Getenv("BASE_URL"), "http://localhost:8080"),
		StoreDriver: cmp.Or(os.Getenv("STORE_DRIVER"), "sqlite"),
		DBPath:      cmp.Or(os.Getenv("DB_PATH"), "shortly.db"),
		AdminCreds:  os.Getenv("ADMIN_CREDENTIALS"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LogLevel:    cmp.Or(os.Getenv("LOG_LEVEL"), "info"),
		Debug:       os.Getenv("DEBUG") == "1",
		Google: auth.GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
	}

	if cfg.StoreDriver != "sqlite" && cfg.StoreDriver != "memory" {
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q (want sqlite or memory)", cfg.StoreDriver)
	}

	if cfg.AdminCreds == "" {
		cfg.AdminCreds = "admin:admin"
		log.Warn().Msg("using default admin credentials - set ADMIN_CREDENTIALS for production")
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.AdminCreds
		log.Warn().Msg("using ADMIN_CREDENTIALS as JWT_SECRET - set JWT_SECRET for production")
	}

	if cfg.Google.Enabled() && cfg.Google.RedirectURL == "" {
		cfg.Google.RedirectURL = cfg.BaseURL + "/auth/google/callback"
	}

	return cfg, nil
}

func main() {
	cfg, err := newConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse configuration from environment")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("failed to parse log level")
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func run(ctx context.Context, cfg Config) error {
	log.Info().
		Str("version", version).
		Str("build_time", buildTime).
		Str("store", cfg.StoreDriver).
		Msg("starting application")

	credentials, err := auth.NewCredentials(cfg.AdminCreds)
	if err != nil {
		return fmt.Errorf("failed to parse admin credentials: %w", err)
	}

	var (
		linkStore  storage.LinkStore
		eventStore storage.EventStore
	)
	switch cfg.StoreDriver {
	case "memory":
		log.Warn().Msg("using in-memory store - data is lost on restart")
		mem := storage.NewMemory()
		linkStore, eventStore = mem, mem
	default:
		dbInstance, err := db.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer dbInstance.Close()
		linkStore = repo.NewLinks(dbInstance)
		eventStore = repo.NewEvents(dbInstance)
	}

	e := echo.New()
	defer e.Close()

	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	authenticator := auth.NewAuthenticator(credentials, cfg.JWTSecret)
	authMiddleware := authenticator.Middleware()

	pages := handler.NewPageHandler()
	e.GET("/", pages.ServeLoginPage)
	e.GET("/not-found", pages.ServeNotFound)
	e.GET("/dashboard", pages.ServeDashboard, authMiddleware)

	authHandler := handler.NewAuthHandler(authenticator)
	e.POST("/login", authHandler.Login)
	e.GET("/logout", authHandler.Logout)

	if cfg.Google.Enabled() {
		log.Info().Msg("google login enabled")
		googleAuth := auth.NewGoogleAuth(cfg.Google, authenticator, "/dashboard")
		e.GET("/auth/google/login", googleAuth.Login)
		e.GET("/auth/google/callback", googleAuth.Callback)
	}

	generator := slug.NewGenerator(rand.NewSource(time.Now().UnixNano()))
	links := service.NewLinks(linkStore, eventStore, generator)

	api := e.Group("/api", authMiddleware)
	linkHandler := handler.NewLinkHandler(links)
	api.GET("/urls", linkHandler.ListLinks)
	api.POST("/urls", linkHandler.CreateLink)
	api.GET("/urls/:id", linkHandler.GetLink)
	api.PATCH("/urls/:id", linkHandler.UpdateLink)
	api.DELETE("/urls/:id", linkHandler.DeleteLink)

	if cfg.Debug {
		log.Info().Msg("serving static files from disk")
		e.Static("/static", "web")
	} else {
		e.StaticFS("/static", web.FS)
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// Parameterized route (must be last)
	redirectHandler := handler.NewRedirectHandler(links)
	e.GET("/:slug", redirectHandler.Redirect)

	log.Info().Str("host", cfg.Host).Str("port", cfg.Port).Msg("server starting")

	runServer(ctx, e, cfg.Port)

	return nil
}

func runServer(ctx context.Context, e *echo.Echo, port string) {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + port)
	}()

	<-ctx.Done()

	log.Info().Msg("shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during graceful shutdown")
	}

	if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("server stopped")
}

func customErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "internal server error"
	isAPICall := strings.HasPrefix(c.Path(), "/api/")

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	}

	if !isAPICall && code == http.StatusUnauthorized {
		c.Redirect(http.StatusTemporaryRedirect, "/")
		return
	}

	log.Error().
		Int("code", code).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Err(err).
		Msg("http error")

	if c.Response().Committed {
		return
	}

	c.JSON(code, map[string]any{
		"error": message,
	})
}
