package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/watchparty/synchub/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

func (v configVar[T]) bind() {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

var (
	secret = configVar[string]{
		envKey:       "SYNCHUB_SECRET",
		flagKey:      "secret",
		defaultValue: "",
	}
	host = configVar[string]{
		envKey:       "SYNCHUB_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SYNCHUB_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	logLevel = configVar[string]{
		envKey:       "SYNCHUB_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	allowedOrigins = configVar[[]string]{
		envKey:       "SYNCHUB_ALLOWED_ORIGINS",
		flagKey:      "allowed-origins",
		defaultValue: []string{"*"},
	}
	sendBuffer = configVar[int]{
		envKey:       "SYNCHUB_SEND_BUFFER",
		flagKey:      "send-buffer",
		defaultValue: 256,
	}
	pingInterval = configVar[time.Duration]{
		envKey:       "SYNCHUB_PING_INTERVAL",
		flagKey:      "ping-interval",
		defaultValue: 54 * time.Second,
	}
	pongWait = configVar[time.Duration]{
		envKey:       "SYNCHUB_PONG_WAIT",
		flagKey:      "pong-wait",
		defaultValue: 60 * time.Second,
	}
	maxMessageSize = configVar[int64]{
		envKey:       "SYNCHUB_MAX_MESSAGE_SIZE",
		flagKey:      "max-message-size",
		defaultValue: 64 * 1024,
	}
	chatStore = configVar[string]{
		envKey:       "SYNCHUB_CHAT_STORE",
		flagKey:      "chat-store",
		defaultValue: app.ChatStoreNone,
	}
	chatAPIURL = configVar[string]{
		envKey:       "SYNCHUB_CHAT_API_URL",
		flagKey:      "chat-api-url",
		defaultValue: "",
	}
	chatAPIToken = configVar[string]{
		envKey:       "SYNCHUB_CHAT_API_TOKEN",
		flagKey:      "chat-api-token",
		defaultValue: "",
	}
	chatPersistTimeout = configVar[time.Duration]{
		envKey:       "SYNCHUB_CHAT_PERSIST_TIMEOUT",
		flagKey:      "chat-persist-timeout",
		defaultValue: 3 * time.Second,
	}
	chatHistoryLimit = configVar[int]{
		envKey:       "SYNCHUB_CHAT_HISTORY_LIMIT",
		flagKey:      "chat-history-limit",
		defaultValue: 50,
	}
	chatHistoryTTL = configVar[time.Duration]{
		envKey:       "SYNCHUB_CHAT_HISTORY_TTL",
		flagKey:      "chat-history-ttl",
		defaultValue: 24 * 7 * time.Hour,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	postgresDSN = configVar[string]{
		envKey:       "POSTGRES_DSN",
		flagKey:      "postgres-dsn",
		defaultValue: "",
	}
	stunURLs = configVar[[]string]{
		envKey:       "SYNCHUB_STUN_URLS",
		flagKey:      "stun-urls",
		defaultValue: []string{"stun:stun.l.google.com:19302"},
	}
	turnHost = configVar[string]{
		envKey:       "SYNCHUB_TURN_HOST",
		flagKey:      "turn-host",
		defaultValue: "",
	}
	turnSecret = configVar[string]{
		envKey:       "SYNCHUB_TURN_SECRET",
		flagKey:      "turn-secret",
		defaultValue: "",
	}
	turnTTL = configVar[time.Duration]{
		envKey:       "SYNCHUB_TURN_TTL",
		flagKey:      "turn-ttl",
		defaultValue: 24 * time.Hour,
	}
)

// getList accepts both repeated flags and comma separated env values.
func getList(key string) []string {
	var list []string
	for _, item := range viper.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
	}

	return list
}

func loadAppConfig() *app.AppConfig {
	pflag.String(secret.flagKey, secret.defaultValue, "Identity token secret, empty trusts user-id and display-name query params")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.StringSlice(allowedOrigins.flagKey, allowedOrigins.defaultValue, "Allowed browser origins, * for any")
	pflag.Int(sendBuffer.flagKey, sendBuffer.defaultValue, "Outbound queue size per connection")
	pflag.Duration(pingInterval.flagKey, pingInterval.defaultValue, "Websocket ping interval")
	pflag.Duration(pongWait.flagKey, pongWait.defaultValue, "Time to wait for a pong before dropping a connection")
	pflag.Int64(maxMessageSize.flagKey, maxMessageSize.defaultValue, "Maximum inbound websocket message size in bytes")
	pflag.String(chatStore.flagKey, chatStore.defaultValue, fmt.Sprintf("Chat store, one of %v", app.ChatStores()))
	pflag.String(chatAPIURL.flagKey, chatAPIURL.defaultValue, "Base url of the chat api")
	pflag.String(chatAPIToken.flagKey, chatAPIToken.defaultValue, "Bearer token for the chat api")
	pflag.Duration(chatPersistTimeout.flagKey, chatPersistTimeout.defaultValue, "Timeout for persisting one chat message")
	pflag.Int(chatHistoryLimit.flagKey, chatHistoryLimit.defaultValue, "Maximum number of chat messages returned as history")
	pflag.Duration(chatHistoryTTL.flagKey, chatHistoryTTL.defaultValue, "Chat history lifetime in the redis store")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.String(postgresDSN.flagKey, postgresDSN.defaultValue, "Postgres connection string")
	pflag.StringSlice(stunURLs.flagKey, stunURLs.defaultValue, "STUN server urls")
	pflag.String(turnHost.flagKey, turnHost.defaultValue, "TURN server host:port")
	pflag.String(turnSecret.flagKey, turnSecret.defaultValue, "TURN REST api shared secret")
	pflag.Duration(turnTTL.flagKey, turnTTL.defaultValue, "TURN credential lifetime")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	secret.bind()
	host.bind()
	port.bind()
	logLevel.bind()
	allowedOrigins.bind()
	sendBuffer.bind()
	pingInterval.bind()
	pongWait.bind()
	maxMessageSize.bind()
	chatStore.bind()
	chatAPIURL.bind()
	chatAPIToken.bind()
	chatPersistTimeout.bind()
	chatHistoryLimit.bind()
	chatHistoryTTL.bind()
	redisHost.bind()
	redisPort.bind()
	redisPassword.bind()
	postgresDSN.bind()
	stunURLs.bind()
	turnHost.bind()
	turnSecret.bind()
	turnTTL.bind()

	config := &app.AppConfig{
		Secret:             viper.GetString(secret.flagKey),
		Host:               viper.GetString(host.flagKey),
		Port:               viper.GetInt(port.flagKey),
		LogLevel:           viper.GetString(logLevel.flagKey),
		AllowedOrigins:     getList(allowedOrigins.flagKey),
		SendBuffer:         viper.GetInt(sendBuffer.flagKey),
		PingInterval:       viper.GetDuration(pingInterval.flagKey),
		PongWait:           viper.GetDuration(pongWait.flagKey),
		MaxMessageSize:     viper.GetInt64(maxMessageSize.flagKey),
		ChatStore:          viper.GetString(chatStore.flagKey),
		ChatAPIURL:         viper.GetString(chatAPIURL.flagKey),
		ChatAPIToken:       viper.GetString(chatAPIToken.flagKey),
		ChatPersistTimeout: viper.GetDuration(chatPersistTimeout.flagKey),
		ChatHistoryLimit:   viper.GetInt(chatHistoryLimit.flagKey),
		ChatHistoryTTL:     viper.GetDuration(chatHistoryTTL.flagKey),
		RedisHost:          viper.GetString(redisHost.flagKey),
		RedisPort:          viper.GetInt(redisPort.flagKey),
		RedisPassword:      viper.GetString(redisPassword.flagKey),
		PostgresDSN:        viper.GetString(postgresDSN.flagKey),
		StunURLs:           getList(stunURLs.flagKey),
		TurnHost:           viper.GetString(turnHost.flagKey),
		TurnSecret:         viper.GetString(turnSecret.flagKey),
		TurnTTL:            viper.GetDuration(turnTTL.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
