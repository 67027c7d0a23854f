package hubclient

import (
	"context"
	"time"
)

// Playback carries video:play, video:pause and video:seek both ways. Origin is
// only set on messages from the hub.
type Playback struct {
	RoomId      string  `json:"roomId,omitempty"`
	CurrentTime float64 `json:"currentTime"`
	Origin      *Origin `json:"origin,omitempty"`
}

type VideoChange struct {
	RoomId   string  `json:"roomId,omitempty"`
	VideoUrl string  `json:"videoUrl"`
	Origin   *Origin `json:"origin,omitempty"`
}

type PlayerState struct {
	VideoUrl    *string `json:"videoUrl"`
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
	LastUpdate  int64   `json:"lastUpdate"`
}

type Presence struct {
	UserId       string `json:"userId"`
	DisplayName  string `json:"displayName"`
	ConnectionId string `json:"connectionId"`
}

type ChatAuthor struct {
	Id          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Avatar      *string `json:"avatar"`
}

type ChatMessage struct {
	Id        string     `json:"id"`
	Content   string     `json:"content"`
	Author    ChatAuthor `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Signal is a relayed negotiation message. On the way out only RoomId,
// TargetConnectionId and Payload are used.
type Signal struct {
	RoomId             string `json:"roomId"`
	TargetConnectionId string `json:"targetConnectionId,omitempty"`
	SenderId           string `json:"senderId,omitempty"`
	UserId             string `json:"userId,omitempty"`
	DisplayName        string `json:"displayName,omitempty"`
	Payload            any    `json:"payload"`
}

type roomPayload struct {
	RoomId string `json:"roomId"`
}

func (c *Conn) JoinRoom(ctx context.Context, roomId string) error {
	return c.Emit(ctx, "room:join", roomPayload{RoomId: roomId})
}

// JoinRoomSync joins the room and waits until the hub has processed the join.
// The returned events include the room's video:state snapshot, if any.
func (c *Conn) JoinRoomSync(ctx context.Context, roomId string) ([]Message, error) {
	if err := c.JoinRoom(ctx, roomId); err != nil {
		return nil, err
	}

	return c.Sync(ctx)
}

func (c *Conn) LeaveRoom(ctx context.Context, roomId string) error {
	return c.Emit(ctx, "room:leave", roomPayload{RoomId: roomId})
}

func (c *Conn) Play(ctx context.Context, roomId string, currentTime float64) error {
	return c.Emit(ctx, "video:play", Playback{RoomId: roomId, CurrentTime: currentTime})
}

func (c *Conn) Pause(ctx context.Context, roomId string, currentTime float64) error {
	return c.Emit(ctx, "video:pause", Playback{RoomId: roomId, CurrentTime: currentTime})
}

func (c *Conn) Seek(ctx context.Context, roomId string, currentTime float64) error {
	return c.Emit(ctx, "video:seek", Playback{RoomId: roomId, CurrentTime: currentTime})
}

func (c *Conn) ChangeVideo(ctx context.Context, roomId, videoUrl string) error {
	return c.Emit(ctx, "video:change", VideoChange{RoomId: roomId, VideoUrl: videoUrl})
}

func (c *Conn) SendChat(ctx context.Context, roomId, content string) error {
	return c.Emit(ctx, "chat:message", struct {
		RoomId  string `json:"roomId"`
		Content string `json:"content"`
	}{roomId, content})
}

func (c *Conn) Typing(ctx context.Context, roomId string, isTyping bool) error {
	return c.Emit(ctx, "chat:typing", struct {
		RoomId   string `json:"roomId"`
		IsTyping bool   `json:"isTyping"`
	}{roomId, isTyping})
}

// Signal sends msgType (e.g. voice:offer) to one connection in the room.
func (c *Conn) Signal(ctx context.Context, msgType, roomId, target string, payload any) error {
	return c.Emit(ctx, msgType, Signal{RoomId: roomId, TargetConnectionId: target, Payload: payload})
}
