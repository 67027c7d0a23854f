package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/watchparty/synchub/internal/identity"
	"github.com/watchparty/synchub/internal/service/hub"
	"github.com/watchparty/synchub/pkg/ctxlogger"
)

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userIdentity, err := c.verifier.FromRequest(r)
	if err != nil {
		c.logger.InfoContext(ctx, "rejected websocket without identity", "error", err)
		status := http.StatusUnauthorized
		if !errors.Is(err, identity.ErrMissingIdentity) && !errors.Is(err, identity.ErrInvalidToken) {
			status = http.StatusInternalServerError
		}
		c.writeJSON(w, status, envelope{"error": err.Error()})
		return
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to upgrade to websocket", "error", err)
		return
	}

	cl := newClient(ws, c.config.SendBuffer)

	conn, err := c.hubService.Connect(ctx, &hub.ConnectParams{
		Identity: userIdentity,
		Sender:   cl,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to connect", "error", err)
		ws.Close()
		return
	}

	ctx = context.WithValue(ctx, connectionIdCtxKey, conn.Id)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("connection_id", conn.Id))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", conn.Identity.UserId))

	go c.writePump(ctx, cl)

	c.readPump(ctx, cl)

	cl.Close()
	if err := c.hubService.Disconnect(context.WithoutCancel(ctx), conn.Id); err != nil {
		c.logger.WarnContext(ctx, "failed to clean up connection", "error", err)
	}
}
