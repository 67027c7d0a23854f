package controller

import (
	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.SetValidator(c.validate)
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw(), wsrouter.Recoverer())

	wsrouter.Handle(mux, "ping", c.handlePing)

	// room
	wsrouter.Handle(mux, "room:join", c.handleJoinRoom)
	wsrouter.Handle(mux, "room:leave", c.handleLeaveRoom)

	// player
	wsrouter.Handle(mux, "video:play", c.handlePlay)
	wsrouter.Handle(mux, "video:pause", c.handlePause)
	wsrouter.Handle(mux, "video:seek", c.handleSeek)
	wsrouter.Handle(mux, "video:change", c.handleChangeVideo)

	// chat
	wsrouter.Handle(mux, "chat:message", c.handleChatMessage)
	wsrouter.Handle(mux, "chat:typing", c.handleTyping)
	wsrouter.Handle(mux, "chat:history", c.handleChatHistory)

	// voice
	wsrouter.Handle(mux, "voice:join", c.handleJoinVoice)
	wsrouter.Handle(mux, "voice:leave", c.handleLeaveVoice)
	wsrouter.Handle(mux, "voice:speaking", c.handleSpeaking)

	// screen
	wsrouter.Handle(mux, "screen:start", c.handleStartScreen)
	wsrouter.Handle(mux, "screen:stop", c.handleStopScreen)
	wsrouter.Handle(mux, "screen:request", c.handleRequestScreen)

	// signaling
	for _, namespace := range []domain.Namespace{domain.NamespaceVoice, domain.NamespaceScreen} {
		for _, kind := range []domain.SignalKind{domain.SignalOffer, domain.SignalAnswer, domain.SignalIceCandidate} {
			wsrouter.Handle(mux, namespace.EventType(kind), c.handleSignal(namespace, kind))
		}
	}

	return mux
}
