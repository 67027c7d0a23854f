package controller

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/service/hub"
	"github.com/watchparty/synchub/pkg/validator"
	"github.com/watchparty/synchub/pkg/wsrouter"
)

type iHubService interface {
	Connect(context.Context, *hub.ConnectParams) (*domain.Connection, error)
	Disconnect(ctx context.Context, connectionId string) error
	Ping(ctx context.Context, connectionId string) error
	// room
	JoinRoom(context.Context, *hub.JoinRoomParams) error
	LeaveRoom(context.Context, *hub.LeaveRoomParams) error
	// player
	Play(context.Context, *hub.PlaybackParams) error
	Pause(context.Context, *hub.PlaybackParams) error
	Seek(context.Context, *hub.PlaybackParams) error
	SetVideo(context.Context, *hub.SetVideoParams) error
	// chat
	SendChatMessage(context.Context, *hub.SendChatMessageParams) error
	GetChatHistory(context.Context, *hub.GetChatHistoryParams) error
	Typing(context.Context, *hub.TypingParams) error
	// voice
	JoinVoice(context.Context, *hub.JoinVoiceParams) error
	LeaveVoice(context.Context, *hub.LeaveVoiceParams) error
	Speaking(context.Context, *hub.SpeakingParams) error
	// signaling
	Relay(context.Context, *hub.RelayParams) error
	StartScreen(context.Context, *hub.ScreenParams) error
	StopScreen(context.Context, *hub.ScreenParams) error
	RequestScreen(context.Context, *hub.ScreenParams) error
}

type iIdentityVerifier interface {
	FromRequest(r *http.Request) (domain.Identity, error)
}

type Config struct {
	AllowedOrigins []string
	SendBuffer     int
	PingInterval   time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	StunURLs       []string
	TurnURLs       []string
	TurnSecret     string
	TurnTTL        time.Duration
}

type controller struct {
	hubService iHubService
	verifier   iIdentityVerifier
	upgrader   websocket.Upgrader
	wsmux      *wsrouter.WSRouter
	validate   *validator.Validator
	config     Config
	logger     *slog.Logger
}

func NewController(hubService iHubService, verifier iIdentityVerifier, cfg Config, logger *slog.Logger) *controller {
	c := &controller{
		hubService: hubService,
		verifier:   verifier,
		validate:   validator.NewValidator(),
		config:     cfg,
		logger:     logger,
	}
	c.upgrader = websocket.Upgrader{
		CheckOrigin: c.checkOrigin,
	}
	c.wsmux = c.getWSRouter()

	return c
}

// checkOrigin accepts requests without an Origin header (non-browser clients)
// and, when allowed origins are configured, only browsers from that list.
func (c *controller) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || c.allowAllOrigins() {
		return true
	}

	return slices.Contains(c.config.AllowedOrigins, origin)
}

func (c *controller) allowAllOrigins() bool {
	return len(c.config.AllowedOrigins) == 0 || slices.Contains(c.config.AllowedOrigins, "*")
}
