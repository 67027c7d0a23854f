package hub

import (
	"log/slog"
	"time"

	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/metrics"
	"github.com/watchparty/synchub/internal/repository/chat"
	"github.com/watchparty/synchub/internal/repository/room"
)

type iConnRepo interface {
	Register(conn *domain.Connection) error
	JoinRoom(connectionId, roomId string) (bool, error)
	LeaveRoom(connectionId, roomId string) (bool, error)
	Remove(connectionId string) (*domain.Connection, []string, error)
	Get(connectionId string) (*domain.Connection, error)
	GetRoomConns(roomId string) []*domain.Connection
	All() []*domain.Connection
	Count() int
}

type iRoomRepo interface {
	Update(roomId string, fn func(state *room.State) error) error
	GetPlayer(roomId string) (domain.Player, error)
	VoiceRoomsOf(userId string) []string
	Count() int
}

type Config struct {
	ChatPersistTimeout time.Duration
	ChatHistoryLimit   int
}

type service struct {
	connRepo  iConnRepo
	roomRepo  iRoomRepo
	chatStore chat.Store
	config    Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds the hub. chatStore may be nil, in which case chat messages
// get a locally generated id and history is always empty.
func NewService(connRepo iConnRepo, roomRepo iRoomRepo, chatStore chat.Store, cfg Config, logger *slog.Logger) *service {
	if cfg.ChatPersistTimeout <= 0 {
		cfg.ChatPersistTimeout = 3 * time.Second
	}
	if cfg.ChatHistoryLimit <= 0 {
		cfg.ChatHistoryLimit = 50
	}

	return &service{
		connRepo:  connRepo,
		roomRepo:  roomRepo,
		chatStore: chatStore,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// updateRoom runs fn under the room's lock and refreshes the rooms gauge, since
// the store drops rooms left with no state.
func (s service) updateRoom(roomId string, fn func(state *room.State) error) error {
	err := s.roomRepo.Update(roomId, fn)
	metrics.SetRooms(s.roomRepo.Count())

	return err
}
