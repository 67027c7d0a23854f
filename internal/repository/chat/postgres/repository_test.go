package postgres

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/repository/chat"
)

const schema = `
	CREATE TABLE "User" (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		avatar TEXT
	);
	CREATE TABLE "Message" (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		"userId" TEXT NOT NULL REFERENCES "User"(id),
		"roomId" TEXT NOT NULL,
		"createdAt" TIMESTAMP(3) NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	INSERT INTO "User" (id, username, avatar) VALUES ('u1', 'alice', 'a.png'), ('u2', 'bob', NULL);`

func setupRepo(t *testing.T) *repo {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("watchparty"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, schema)
	require.NoError(t, err)

	return NewRepo(pool, slog.Default())
}

func TestAppendAndHistory(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	first, err := r.AppendMessage(ctx, &chat.AppendMessageParams{
		RoomId:  "r1",
		Content: "hello",
		Author:  domain.ChatAuthor{Id: "u1", DisplayName: "Alice"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.Id)

	time.Sleep(5 * time.Millisecond)
	_, err = r.AppendMessage(ctx, &chat.AppendMessageParams{
		RoomId:  "r1",
		Content: "hi",
		Author:  domain.ChatAuthor{Id: "u2", DisplayName: "Bob"},
	})
	require.NoError(t, err)

	t.Log("unknown author violates the foreign key")
	_, err = r.AppendMessage(ctx, &chat.AppendMessageParams{RoomId: "r1", Content: "x", Author: domain.ChatAuthor{Id: "ghost"}})
	assert.Error(t, err)

	msgs, err := r.GetRecentMessages(ctx, "r1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.Id, msgs[0].Id)
	assert.Equal(t, "alice", msgs[0].Author.DisplayName)
	require.NotNil(t, msgs[0].Author.Avatar)
	assert.Nil(t, msgs[1].Author.Avatar)

	t.Log("the limit keeps the newest messages")
	msgs, err = r.GetRecentMessages(ctx, "r1", 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)

	msgs, err = r.GetRecentMessages(ctx, "r2", 10)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}
