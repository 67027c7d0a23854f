package postgres

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/repository/chat"
)

// Tables are owned by the web app's schema; the hub only reads and appends.
const (
	insertMessageQuery = `
		INSERT INTO "Message" (id, content, "userId", "roomId", "createdAt")
		VALUES ($1, $2, $3, $4, $5)`

	recentMessagesQuery = `
		SELECT m.id, m.content, m."createdAt", u.id, u.username, u.avatar
		FROM "Message" m
		JOIN "User" u ON u.id = m."userId"
		WHERE m."roomId" = $1
		ORDER BY m."createdAt" DESC
		LIMIT $2`
)

type repo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepo(pool *pgxpool.Pool, logger *slog.Logger) *repo {
	return &repo{
		pool:   pool,
		logger: logger,
	}
}

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}

func (r *repo) AppendMessage(ctx context.Context, params *chat.AppendMessageParams) (domain.ChatMessage, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	msg := domain.ChatMessage{
		Id:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Content:   params.Content,
		Author:    params.Author,
		CreatedAt: now,
	}

	tag, err := r.pool.Exec(ctx, insertMessageQuery, msg.Id, msg.Content, params.Author.Id, params.RoomId, msg.CreatedAt)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("failed to insert message: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ChatMessage{}, fmt.Errorf("failed to insert message: no rows affected")
	}

	return msg, nil
}

type messageRow struct {
	Id           string
	Content      string
	CreatedAt    time.Time
	AuthorId     string
	AuthorName   string
	AuthorAvatar *string
}

func (m messageRow) toDomain() domain.ChatMessage {
	return domain.ChatMessage{
		Id:        m.Id,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		Author: domain.ChatAuthor{
			Id:          m.AuthorId,
			DisplayName: m.AuthorName,
			Avatar:      m.AuthorAvatar,
		},
	}
}

func (r *repo) GetRecentMessages(ctx context.Context, roomId string, limit int) ([]domain.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, recentMessagesQuery, roomId, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	collected, err := pgx.CollectRows(rows, pgx.RowToStructByPos[messageRow])
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	// newest first from the query, oldest first to the caller
	slices.Reverse(collected)

	messages := make([]domain.ChatMessage, 0, len(collected))
	for _, m := range collected {
		messages = append(messages, m.toDomain())
	}

	return messages, nil
}
