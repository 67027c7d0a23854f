package hub

import (
	"encoding/json"

	"github.com/watchparty/synchub/internal/domain"
)

// Server to client event types. Signaling events reuse the inbound names.
const (
	EventConnectionReady   = "connection:ready"
	EventUserJoined        = "room:user-joined"
	EventUserLeft          = "room:user-left"
	EventVideoState        = "video:state"
	EventVideoPlay         = "video:play"
	EventVideoPause        = "video:pause"
	EventVideoSeek         = "video:seek"
	EventVideoChange       = "video:change"
	EventChatMessage       = "chat:message"
	EventChatTyping        = "chat:typing"
	EventChatHistory       = "chat:history"
	EventVoiceUserJoined   = "voice:user-joined"
	EventVoiceUserLeft     = "voice:user-left"
	EventVoiceParticipants = "voice:participants"
	EventVoiceSpeaking     = "voice:speaking"
	EventScreenStarted     = "screen:started"
	EventScreenStopped     = "screen:stopped"
	EventScreenViewerJoin  = "screen:viewer-join"
	EventPong              = "pong"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type ConnectionReadyOutput struct {
	ConnectionId string `json:"connectionId"`
	UserId       string `json:"userId"`
	DisplayName  string `json:"displayName"`
}

// PresenceOutput announces a user by identity and connection.
type PresenceOutput struct {
	UserId       string `json:"userId"`
	DisplayName  string `json:"displayName"`
	ConnectionId string `json:"connectionId"`
}

func presenceOf(conn *domain.Connection) PresenceOutput {
	return PresenceOutput{
		UserId:       conn.Identity.UserId,
		DisplayName:  conn.Identity.DisplayName,
		ConnectionId: conn.Id,
	}
}

type VideoTimeOutput struct {
	CurrentTime float64       `json:"currentTime"`
	Origin      domain.Origin `json:"origin"`
}

type VideoChangeOutput struct {
	VideoUrl string        `json:"videoUrl"`
	Origin   domain.Origin `json:"origin"`
}

type TypingOutput struct {
	UserId      string `json:"userId"`
	DisplayName string `json:"displayName"`
	IsTyping    bool   `json:"isTyping"`
}

type VoiceLeftOutput struct {
	UserId       string `json:"userId"`
	ConnectionId string `json:"connectionId"`
}

type VoiceParticipantsOutput struct {
	RoomId       string               `json:"roomId"`
	Participants []domain.VoiceMember `json:"participants"`
}

type SpeakingOutput struct {
	UserId     string `json:"userId"`
	IsSpeaking bool   `json:"isSpeaking"`
}

type SignalOutput struct {
	SenderId    string          `json:"senderId"`
	UserId      string          `json:"userId"`
	DisplayName string          `json:"displayName"`
	RoomId      string          `json:"roomId"`
	Payload     json.RawMessage `json:"payload"`
}

type ChatHistoryOutput struct {
	RoomId   string               `json:"roomId"`
	Messages []domain.ChatMessage `json:"messages"`
}

type PongOutput struct{}
