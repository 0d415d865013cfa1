package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexanderMakarov/tgjournals/internal/api"
	"github.com/AlexanderMakarov/tgjournals/internal/bot"
	"github.com/AlexanderMakarov/tgjournals/internal/config"
	"github.com/AlexanderMakarov/tgjournals/internal/database"
	apperrors "github.com/AlexanderMakarov/tgjournals/internal/errors"
	"github.com/AlexanderMakarov/tgjournals/internal/i18n"
	"github.com/AlexanderMakarov/tgjournals/internal/lock"
	"github.com/AlexanderMakarov/tgjournals/internal/logger"
	"github.com/AlexanderMakarov/tgjournals/internal/metrics"
	"github.com/AlexanderMakarov/tgjournals/internal/service"
	"github.com/AlexanderMakarov/tgjournals/internal/telegram"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot and its HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer logger.Cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := NewServer(cfg)
		if err := server.Init(ctx); err != nil {
			logger.Error("Startup failed", zap.Error(err))
			server.Close()
			return err
		}
		return server.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// Server wires every component of the serve command.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	redis      *redis.Client
	client     *telegram.Client
	dispatcher *telegram.Dispatcher
	poller     *telegram.Poller
	bot        *bot.Bot
	tr         *i18n.Translator
	httpServer *http.Server
}

// NewServer creates a Server for cfg.
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger.WithModule("server"),
	}
}

// Init opens the database and builds the component graph.
func (s *Server) Init(ctx context.Context) error {
	s.logger.Info("Starting tgjournals",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
		zap.String("telegramMode", s.cfg.Telegram.Mode),
	)

	if s.cfg.Telegram.Token == "" {
		return apperrors.New(apperrors.ErrConfigMissing, "telegram.token")
	}

	if err := database.Init(&s.cfg.Database); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "open database")
	}
	if s.cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "migrate database")
		}
	}

	locker, err := s.initLocker(ctx)
	if err != nil {
		return err
	}

	s.tr, err = i18n.New(s.cfg.Bot.DefaultLocale)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrConfigLoad, "load locales")
	}

	var m *metrics.Metrics
	if s.cfg.Metrics.Enabled {
		m = metrics.New()
	}

	services := service.NewServices(database.GetDB(), &service.Config{
		AdminIDs:       s.cfg.Telegram.AdminIDs,
		HealthCacheTTL: s.cfg.Bot.HealthCacheTTL,
		JWTSecret:      s.cfg.AdminAPI.JWTSecret,
		TokenTTL:       s.cfg.AdminAPI.TokenTTL,
		PasswordHash:   s.cfg.AdminAPI.PasswordHash,
	}, logger.WithModule("service"))

	s.bot = bot.New(services, locker, s.tr, logger.WithModule("bot"), bot.Options{
		PageSize: s.cfg.Bot.PageSize,
		Username: s.cfg.Telegram.Username,
		Metrics:  m,
	})

	s.client = telegram.NewClient(s.cfg.Telegram.APIURL, s.cfg.Telegram.Token, s.cfg.Telegram.RequestTimeout, logger.WithModule("telegram"))
	s.dispatcher = telegram.NewDispatcher(s.bot, s.client, m, logger.WithModule("telegram"))

	routerCfg := api.RouterConfig{
		WebhookPath:   s.cfg.Telegram.WebhookPath,
		SecretToken:   s.cfg.Telegram.SecretToken,
		MetricsPath:   s.cfg.Metrics.Path,
		EnableAdmin:   s.cfg.AdminAPI.Enabled,
		EnableMetrics: s.cfg.Metrics.Enabled,
	}
	webhookDispatcher := s.dispatcher
	if s.cfg.Telegram.Polling() {
		s.poller = telegram.NewPoller(s.client, s.dispatcher, s.cfg.Telegram.PollTimeout, logger.WithModule("telegram"))
		webhookDispatcher = nil
	}

	if s.cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(routerCfg, services, webhookDispatcher, m, logger.GetLogger())

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	return nil
}

func (s *Server) initLocker(ctx context.Context) (lock.Locker, error) {
	if !s.cfg.Redis.Enabled {
		return lock.NewKeyedMutex(), nil
	}

	s.redis = redis.NewClient(&redis.Options{
		Addr:     s.cfg.Redis.Addr,
		Password: s.cfg.Redis.Password,
		DB:       s.cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.redis.Ping(pingCtx).Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrLockUnavailable, "redis ping")
	}
	s.logger.Info("Using redis user locks", zap.String("addr", s.cfg.Redis.Addr))
	return lock.NewRedisLocker(s.redis, s.cfg.Redis.LockTTL, s.cfg.Redis.RetryInterval), nil
}

// Run serves until ctx is cancelled, then shuts down within
// server.shutdown_timeout.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	if err := s.registerWithTelegram(ctx); err != nil {
		s.logger.Warn("Telegram registration failed", zap.Error(err))
	}

	shutdownTimeout := s.cfg.Server.ShutdownTimeout
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	if s.poller != nil {
		g.Go(func() error {
			return s.poller.Run(gctx)
		})
	}

	reloads := make(chan *config.Config, 1)
	config.Watch(func(newCfg *config.Config) {
		select {
		case reloads <- newCfg:
		default:
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case newCfg := <-reloads:
				s.reloadConfig(newCfg)
			}
		}
	})

	err := g.Wait()
	s.logger.Info("Stopped")
	return err
}

// registerWithTelegram publishes the command menu and, in webhook mode with
// a public URL, the webhook.
func (s *Server) registerWithTelegram(ctx context.Context) error {
	// the first locale is the fallback and becomes the default menu
	for i, locale := range s.tr.Locales() {
		languageCode := locale
		if i == 0 {
			languageCode = ""
		}
		if err := s.client.SetMyCommands(ctx, menuCommands(s.bot.Menu(locale)), languageCode); err != nil {
			return err
		}
	}

	if s.poller != nil || s.cfg.Telegram.WebhookURL == "" {
		return nil
	}
	return s.client.SetWebhook(ctx, s.cfg.Telegram.WebhookURL, s.cfg.Telegram.SecretToken)
}

func menuCommands(menu []bot.MenuCommand) []telegram.BotCommand {
	out := make([]telegram.BotCommand, 0, len(menu))
	for _, c := range menu {
		out = append(out, telegram.BotCommand{Command: c.Command, Description: c.Description})
	}
	return out
}

// reloadConfig applies the settings that can change without a restart.
func (s *Server) reloadConfig(newCfg *config.Config) {
	if newCfg.Log.Level != s.cfg.Log.Level {
		logger.SetLevel(newCfg.Log.Level)
		s.logger.Info("Log level changed", zap.String("level", newCfg.Log.Level))
	}
	s.cfg = newCfg
}

// Close releases the database and redis connections.
func (s *Server) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis", zap.Error(err))
		}
	}
	if err := database.Close(); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
	}
}
