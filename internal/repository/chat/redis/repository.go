package redis

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/repository/chat"
	"github.com/watchparty/synchub/pkg/redishash"
)

type Config struct {
	// MaxMessages caps the history kept per room.
	MaxMessages int
	TTL         time.Duration
}

type repo struct {
	rc          *redis.Client
	maxMessages int
	ttl         time.Duration
	logger      *slog.Logger
}

func NewRepo(rc *redis.Client, cfg *Config, logger *slog.Logger) *repo {
	return &repo{
		rc:          rc,
		maxMessages: cfg.MaxMessages,
		ttl:         cfg.TTL,
		logger:      logger,
	}
}

type messageHash struct {
	Id                string  `redis:"id"`
	RoomId            string  `redis:"room_id"`
	Content           string  `redis:"content"`
	AuthorId          string  `redis:"author_id"`
	AuthorDisplayName string  `redis:"author_display_name"`
	AuthorAvatar      *string `redis:"author_avatar"`
	CreatedAt         int64   `redis:"created_at"`
}

func (r repo) getMessageKey(messageId string) string {
	return "chat:message:" + messageId
}

func (r repo) getHistoryKey(roomId string) string {
	return "room:" + roomId + ":chat"
}

func (r repo) AppendMessage(ctx context.Context, params *chat.AppendMessageParams) (domain.ChatMessage, error) {
	r.logger.DebugContext(ctx, "called", "room_id", params.RoomId)

	now := time.Now()
	msg := messageHash{
		Id:                ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		RoomId:            params.RoomId,
		Content:           params.Content,
		AuthorId:          params.Author.Id,
		AuthorDisplayName: params.Author.DisplayName,
		AuthorAvatar:      params.Author.Avatar,
		CreatedAt:         now.UnixMilli(),
	}

	messageKey := r.getMessageKey(msg.Id)
	historyKey := r.getHistoryKey(params.RoomId)

	pipe := r.rc.TxPipeline()
	redishash.HSetStruct(ctx, pipe, messageKey, msg)
	pipe.Expire(ctx, messageKey, r.ttl)
	pipe.LPush(ctx, historyKey, msg.Id)
	pipe.LTrim(ctx, historyKey, 0, int64(r.maxMessages-1))
	pipe.Expire(ctx, historyKey, r.ttl)

	if err := redishash.ExecPipe(ctx, pipe); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("failed to append message: %w", err)
	}

	return msg.toDomain(), nil
}

// GetRecentMessages returns up to limit messages, oldest first. Messages whose
// hash already expired are skipped.
func (r repo) GetRecentMessages(ctx context.Context, roomId string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 || limit > r.maxMessages {
		limit = r.maxMessages
	}

	ids, err := r.rc.LRange(ctx, r.getHistoryKey(roomId), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get message ids: %w", err)
	}

	if len(ids) == 0 {
		return []domain.ChatMessage{}, nil
	}

	pipe := r.rc.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.HGetAll(ctx, r.getMessageKey(id)))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	messages := make([]domain.ChatMessage, 0, len(ids))
	for i := len(cmds) - 1; i >= 0; i-- {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}

		messages = append(messages, messageFromFields(fields).toDomain())
	}

	return messages, nil
}

func messageFromFields(fields map[string]string) messageHash {
	return messageHash{
		Id:                fields["id"],
		RoomId:            fields["room_id"],
		Content:           fields["content"],
		AuthorId:          fields["author_id"],
		AuthorDisplayName: fields["author_display_name"],
		AuthorAvatar:      redishash.FieldToStringPtr(fields, "author_avatar"),
		CreatedAt:         redishash.FieldToInt64(fields["created_at"]),
	}
}

func (m messageHash) toDomain() domain.ChatMessage {
	return domain.ChatMessage{
		Id:      m.Id,
		Content: m.Content,
		Author: domain.ChatAuthor{
			Id:          m.AuthorId,
			DisplayName: m.AuthorDisplayName,
			Avatar:      m.AuthorAvatar,
		},
		CreatedAt: time.UnixMilli(m.CreatedAt).UTC(),
	}
}
