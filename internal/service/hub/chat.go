package hub

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/metrics"
	"github.com/watchparty/synchub/internal/repository/chat"
)

type SendChatMessageParams struct {
	ConnectionId string
	RoomId       string
	Content      string
	Avatar       *string
}

// SendChatMessage persists the message and broadcasts it to the whole room,
// sender included. A store failure never drops the message: it is broadcast
// with a local id and timestamp instead.
func (s service) SendChatMessage(ctx context.Context, params *SendChatMessageParams) error {
	conn, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	author := domain.ChatAuthor{
		Id:          conn.Identity.UserId,
		DisplayName: conn.Identity.DisplayName,
		Avatar:      params.Avatar,
	}

	msg, err := s.persistChatMessage(ctx, &chat.AppendMessageParams{
		RoomId:  params.RoomId,
		Content: params.Content,
		Author:  author,
	})
	if err != nil {
		metrics.RecordChatPersistFailure()
		s.logger.WarnContext(ctx, "failed to persist chat message, broadcasting local copy",
			"room_id", params.RoomId,
			"error", err,
		)
		msg = s.localChatMessage(params.Content, author)
	}

	return s.broadcast(ctx, params.RoomId, "", EventChatMessage, msg)
}

func (s service) persistChatMessage(ctx context.Context, params *chat.AppendMessageParams) (domain.ChatMessage, error) {
	if s.chatStore == nil {
		return s.localChatMessage(params.Content, params.Author), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.ChatPersistTimeout)
	defer cancel()

	msg, err := s.chatStore.AppendMessage(ctx, params)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("failed to append message: %w", err)
	}

	return msg, nil
}

func (s service) localChatMessage(content string, author domain.ChatAuthor) domain.ChatMessage {
	now := s.now()

	return domain.ChatMessage{
		Id:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Content:   content,
		Author:    author,
		CreatedAt: now.UTC(),
	}
}

type GetChatHistoryParams struct {
	ConnectionId string
	RoomId       string
	Limit        int
}

// GetChatHistory replies privately with the most recent messages, oldest first.
func (s service) GetChatHistory(ctx context.Context, params *GetChatHistoryParams) error {
	conn, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	limit := params.Limit
	if limit <= 0 || limit > s.config.ChatHistoryLimit {
		limit = s.config.ChatHistoryLimit
	}

	messages := []domain.ChatMessage{}
	if s.chatStore != nil {
		ctx, cancel := context.WithTimeout(ctx, s.config.ChatPersistTimeout)
		defer cancel()

		messages, err = s.chatStore.GetRecentMessages(ctx, params.RoomId, limit)
		if err != nil {
			return fmt.Errorf("failed to get chat history: %w", err)
		}
	}

	return s.sendToConn(ctx, conn, EventChatHistory, ChatHistoryOutput{
		RoomId:   params.RoomId,
		Messages: messages,
	})
}
