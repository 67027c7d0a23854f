package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/watchparty/synchub/internal/controller"
	"github.com/watchparty/synchub/internal/identity"
	"github.com/watchparty/synchub/internal/repository/chat"
	chatapi "github.com/watchparty/synchub/internal/repository/chat/api"
	chatpostgres "github.com/watchparty/synchub/internal/repository/chat/postgres"
	chatredis "github.com/watchparty/synchub/internal/repository/chat/redis"
	conninmemory "github.com/watchparty/synchub/internal/repository/connection/inmemory"
	roominmemory "github.com/watchparty/synchub/internal/repository/room/inmemory"
	"github.com/watchparty/synchub/internal/service/hub"
	"github.com/watchparty/synchub/pkg/ctxlogger"
	"github.com/watchparty/synchub/pkg/redisclient"
)

const (
	ChatStoreNone     = "none"
	ChatStoreAPI      = "api"
	ChatStoreRedis    = "redis"
	ChatStorePostgres = "postgres"
)

type AppConfig struct {
	Secret             string        `json:"-"`
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	LogLevel           string        `json:"log_level"`
	AllowedOrigins     []string      `json:"allowed_origins"`
	SendBuffer         int           `json:"send_buffer"`
	PingInterval       time.Duration `json:"ping_interval"`
	PongWait           time.Duration `json:"pong_wait"`
	MaxMessageSize     int64         `json:"max_message_size"`
	ChatStore          string        `json:"chat_store"`
	ChatAPIURL         string        `json:"chat_api_url"`
	ChatAPIToken       string        `json:"-"`
	ChatPersistTimeout time.Duration `json:"chat_persist_timeout"`
	ChatHistoryLimit   int           `json:"chat_history_limit"`
	ChatHistoryTTL     time.Duration `json:"chat_history_ttl"`
	RedisHost          string        `json:"redis_host"`
	RedisPort          int           `json:"redis_port"`
	RedisPassword      string        `json:"-"`
	PostgresDSN        string        `json:"-"`
	StunURLs           []string      `json:"stun_urls"`
	TurnHost           string        `json:"turn_host"`
	TurnSecret         string        `json:"-"`
	TurnTTL            time.Duration `json:"turn_ttl"`
}

var chatStores = []string{ChatStoreNone, ChatStoreAPI, ChatStoreRedis, ChatStorePostgres}

func (cfg *AppConfig) Validate() error {
	var errs []error

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535"))
	}
	if cfg.SendBuffer < 1 {
		errs = append(errs, fmt.Errorf("send buffer must be greater than 0"))
	}
	if cfg.PongWait <= 0 {
		errs = append(errs, fmt.Errorf("pong wait must be positive"))
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongWait {
		errs = append(errs, fmt.Errorf("ping interval must be positive and shorter than pong wait"))
	}
	if cfg.MaxMessageSize < 1 {
		errs = append(errs, fmt.Errorf("max message size must be greater than 0"))
	}
	if cfg.ChatPersistTimeout <= 0 {
		errs = append(errs, fmt.Errorf("chat persist timeout must be positive"))
	}
	if cfg.ChatHistoryLimit < 1 {
		errs = append(errs, fmt.Errorf("chat history limit must be greater than 0"))
	}
	if cfg.TurnHost != "" && cfg.TurnSecret == "" {
		errs = append(errs, fmt.Errorf("turn secret is required when turn host is set"))
	}

	switch cfg.ChatStore {
	case ChatStoreAPI:
		if cfg.ChatAPIURL == "" {
			errs = append(errs, fmt.Errorf("chat api url is required for the api chat store"))
		}
	case ChatStoreRedis:
		if cfg.ChatHistoryTTL <= 0 {
			errs = append(errs, fmt.Errorf("chat history ttl must be positive"))
		}
	case ChatStorePostgres:
		if cfg.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("postgres dsn is required for the postgres chat store"))
		}
	case ChatStoreNone:
	default:
		errs = append(errs, fmt.Errorf("chat store must be one of [%s]", strings.Join(chatStores, " ")))
	}

	return errors.Join(errs...)
}

func (cfg *AppConfig) turnURLs() []string {
	if cfg.TurnHost == "" {
		return nil
	}

	return []string{
		"turn:" + cfg.TurnHost + "?transport=udp",
		"turn:" + cfg.TurnHost + "?transport=tcp",
	}
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

// newChatStore returns a nil store for "none". The returned func releases the
// store's connections.
func newChatStore(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (chat.Store, func(), error) {
	switch cfg.ChatStore {
	case ChatStoreAPI:
		return chatapi.NewRepo(&chatapi.Config{
			BaseURL: cfg.ChatAPIURL,
			Token:   cfg.ChatAPIToken,
			Retries: 2,
		}, nil, logger), func() {}, nil
	case ChatStoreRedis:
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
		}

		return chatredis.NewRepo(rc, &chatredis.Config{
			MaxMessages: cfg.ChatHistoryLimit,
			TTL:         cfg.ChatHistoryTTL,
		}, logger), func() { rc.Close() }, nil
	case ChatStorePostgres:
		pool, err := chatpostgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}

		return chatpostgres.NewRepo(pool, logger), pool.Close, nil
	default:
		return nil, func() {}, nil
	}
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	chatStore, closeChatStore, err := newChatStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeChatStore()

	hubService := hub.NewService(
		conninmemory.NewRepo(logger),
		roominmemory.NewRepo(logger),
		chatStore,
		hub.Config{
			ChatPersistTimeout: cfg.ChatPersistTimeout,
			ChatHistoryLimit:   cfg.ChatHistoryLimit,
		},
		logger,
	)
	controller := controller.NewController(hubService, identity.NewVerifier(cfg.Secret), controller.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		SendBuffer:     cfg.SendBuffer,
		PingInterval:   cfg.PingInterval,
		PongWait:       cfg.PongWait,
		MaxMessageSize: cfg.MaxMessageSize,
		StunURLs:       cfg.StunURLs,
		TurnURLs:       cfg.turnURLs(),
		TurnSecret:     cfg.TurnSecret,
		TurnTTL:        cfg.TurnTTL,
	}, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sig)

	shutdownErr := make(chan error, 1)
	go func() {
		select {
		case <-sig:
		case <-serverCtx.Done():
		}

		logger.InfoContext(ctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		hubService.Shutdown(shutdownCtx)
		shutdownErr <- server.Shutdown(shutdownCtx)
	}()

	logger.InfoContext(ctx, "starting server", "address", server.Addr, "chat_store", cfg.ChatStore)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}

// ChatStores lists the accepted chat-store values.
func ChatStores() []string {
	return slices.Clone(chatStores)
}
