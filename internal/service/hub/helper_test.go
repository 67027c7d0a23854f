package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/repository/chat"
	"github.com/watchparty/synchub/internal/repository/room"
	connInmemory "github.com/watchparty/synchub/internal/repository/connection/inmemory"
	roomInmemory "github.com/watchparty/synchub/internal/repository/room/inmemory"
)

type event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type fakeSender struct {
	mu     sync.Mutex
	events []event
	full   bool
	closed bool
}

func (f *fakeSender) Send(msg []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.full {
		return false
	}

	var e event
	if err := json.Unmarshal(msg, &e); err != nil {
		panic(err)
	}
	f.events = append(f.events, e)

	return true
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

func (f *fakeSender) ofType(msgType string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	var payloads []json.RawMessage
	for _, e := range f.events {
		if e.Type == msgType {
			payloads = append(payloads, e.Payload)
		}
	}

	return payloads
}

func (f *fakeSender) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.Type)
	}

	return types
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = nil
}

func decode[T any](t *testing.T, payload json.RawMessage) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(payload, &v))
	return v
}

func newTestService(t *testing.T, chatStore chat.Store) *service {
	t.Helper()

	logger := slog.Default()
	s := NewService(connInmemory.NewRepo(logger), roomInmemory.NewRepo(logger), chatStore, Config{
		ChatPersistTimeout: 50 * time.Millisecond,
		ChatHistoryLimit:   20,
	}, logger)
	s.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	return s
}

type client struct {
	conn   *domain.Connection
	sender *fakeSender
}

func (c client) id() string {
	return c.conn.Id
}

func connect(t *testing.T, s *service, userId string) client {
	t.Helper()

	sender := &fakeSender{}
	conn, err := s.Connect(context.Background(), &ConnectParams{
		Identity: domain.Identity{UserId: userId, DisplayName: "name-" + userId},
		Sender:   sender,
	})
	require.NoError(t, err)

	return client{conn: conn, sender: sender}
}

func voiceMembers(t *testing.T, s *service, roomId string) []domain.VoiceMember {
	t.Helper()

	var members []domain.VoiceMember
	require.NoError(t, s.roomRepo.Update(roomId, func(state *room.State) error {
		members = state.VoiceMembers()
		return nil
	}))

	return members
}

func join(t *testing.T, s *service, c client, roomId string) {
	t.Helper()

	require.NoError(t, s.JoinRoom(context.Background(), &JoinRoomParams{ConnectionId: c.id(), RoomId: roomId}))
}

type fakeChatStore struct {
	mu       sync.Mutex
	messages map[string][]domain.ChatMessage
	err      error
	block    bool
}

func (f *fakeChatStore) AppendMessage(ctx context.Context, params *chat.AppendMessageParams) (domain.ChatMessage, error) {
	if f.block {
		<-ctx.Done()
		return domain.ChatMessage{}, ctx.Err()
	}
	if f.err != nil {
		return domain.ChatMessage{}, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.messages == nil {
		f.messages = make(map[string][]domain.ChatMessage)
	}
	msg := domain.ChatMessage{
		Id:        "stored-" + params.Content,
		Content:   params.Content,
		Author:    params.Author,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.messages[params.RoomId] = append(f.messages[params.RoomId], msg)

	return msg, nil
}

func (f *fakeChatStore) GetRecentMessages(ctx context.Context, roomId string, limit int) ([]domain.ChatMessage, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	msgs := f.messages[roomId]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	return append([]domain.ChatMessage{}, msgs...), nil
}
