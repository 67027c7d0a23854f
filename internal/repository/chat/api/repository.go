package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/repository/chat"
)

type Config struct {
	BaseURL string
	Token   string
	Retries uint64
}

type repo struct {
	baseURL string
	token   string
	retries uint64
	client  *http.Client
	logger  *slog.Logger
}

func NewRepo(cfg *Config, client *http.Client, logger *slog.Logger) *repo {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &repo{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		retries: cfg.Retries,
		client:  client,
		logger:  logger,
	}
}

type messageUser struct {
	Id       string  `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
}

type message struct {
	Id        string      `json:"id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
	User      messageUser `json:"user"`
}

func (m message) toDomain() domain.ChatMessage {
	return domain.ChatMessage{
		Id:      m.Id,
		Content: m.Content,
		Author: domain.ChatAuthor{
			Id:          m.User.Id,
			DisplayName: m.User.Username,
			Avatar:      m.User.Avatar,
		},
		CreatedAt: m.CreatedAt,
	}
}

type appendMessageRequest struct {
	Content string  `json:"content"`
	UserId  string  `json:"userId"`
	Avatar  *string `json:"avatar,omitempty"`
}

func (r *repo) messagesURL(roomId string) string {
	return r.baseURL + "/api/rooms/" + url.PathEscape(roomId) + "/messages"
}

func (r *repo) AppendMessage(ctx context.Context, params *chat.AppendMessageParams) (domain.ChatMessage, error) {
	body, err := json.Marshal(appendMessageRequest{
		Content: params.Content,
		UserId:  params.Author.Id,
		Avatar:  params.Author.Avatar,
	})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	var msg message
	if err := r.do(ctx, http.MethodPost, r.messagesURL(params.RoomId), body, &msg); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("failed to append message: %w", err)
	}

	result := msg.toDomain()
	// the collaborator knows usernames, the hub knows the connected display name
	if result.Author.DisplayName == "" {
		result.Author.DisplayName = params.Author.DisplayName
	}
	if result.Author.Id == "" {
		result.Author.Id = params.Author.Id
	}

	return result, nil
}

func (r *repo) GetRecentMessages(ctx context.Context, roomId string, limit int) ([]domain.ChatMessage, error) {
	u := r.messagesURL(roomId) + "?limit=" + strconv.Itoa(limit)

	var msgs []message
	if err := r.do(ctx, http.MethodGet, u, nil, &msgs); err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	result := make([]domain.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		result = append(result, m.toDomain())
	}

	return result, nil
}

func (r *repo) do(ctx context.Context, method, u string, body []byte, out any) error {
	backoff := retry.WithMaxRetries(r.retries, retry.NewExponential(100*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if r.token != "" {
			req.Header.Set("Authorization", "Bearer "+r.token)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			r.logger.DebugContext(ctx, "chat api request failed", "method", method, "error", err)
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return chat.ErrRoomNotFound
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("%w: %d", chat.ErrUnexpectedStatus, resp.StatusCode))
		case resp.StatusCode >= 300:
			return fmt.Errorf("%w: %d", chat.ErrUnexpectedStatus, resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		return nil
	})
}
