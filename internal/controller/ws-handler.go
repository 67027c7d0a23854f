package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/service/hub"
)

// Identity fields clients put in payloads (userId, displayName, author) are
// accepted for compatibility but ignored in favour of the connection's bound
// identity. Only author.avatar is used.

type EmptyInput struct{}

type RoomInput struct {
	RoomId string `json:"roomId" validate:"required,max=128"`
}

func (c controller) handlePing(ctx context.Context, _ EmptyInput) error {
	if err := c.hubService.Ping(ctx, c.getConnectionIdFromCtx(ctx)); err != nil {
		return fmt.Errorf("failed to ping: %w", err)
	}

	return nil
}

func (c controller) handleJoinRoom(ctx context.Context, input RoomInput) error {
	if err := c.hubService.JoinRoom(ctx, &hub.JoinRoomParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

func (c controller) handleLeaveRoom(ctx context.Context, input RoomInput) error {
	if err := c.hubService.LeaveRoom(ctx, &hub.LeaveRoomParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

type PlaybackInput struct {
	RoomId      string   `json:"roomId" validate:"required,max=128"`
	CurrentTime *float64 `json:"currentTime" validate:"required"`
}

func (c controller) playbackParams(ctx context.Context, input PlaybackInput) *hub.PlaybackParams {
	return &hub.PlaybackParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
		CurrentTime:  *input.CurrentTime,
	}
}

func (c controller) handlePlay(ctx context.Context, input PlaybackInput) error {
	if err := c.hubService.Play(ctx, c.playbackParams(ctx, input)); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}

	return nil
}

func (c controller) handlePause(ctx context.Context, input PlaybackInput) error {
	if err := c.hubService.Pause(ctx, c.playbackParams(ctx, input)); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	return nil
}

func (c controller) handleSeek(ctx context.Context, input PlaybackInput) error {
	if err := c.hubService.Seek(ctx, c.playbackParams(ctx, input)); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	return nil
}

type ChangeVideoInput struct {
	RoomId   string `json:"roomId" validate:"required,max=128"`
	VideoUrl string `json:"videoUrl" validate:"required,max=2048"`
}

func (c controller) handleChangeVideo(ctx context.Context, input ChangeVideoInput) error {
	if err := c.hubService.SetVideo(ctx, &hub.SetVideoParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
		VideoUrl:     input.VideoUrl,
	}); err != nil {
		return fmt.Errorf("failed to change video: %w", err)
	}

	return nil
}

type ChatAuthorInput struct {
	Id          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Avatar      *string `json:"avatar"`
}

type ChatMessageInput struct {
	RoomId  string           `json:"roomId" validate:"required,max=128"`
	Content string           `json:"content" validate:"required,max=4000"`
	Author  *ChatAuthorInput `json:"author"`
}

func (c controller) handleChatMessage(ctx context.Context, input ChatMessageInput) error {
	var avatar *string
	if input.Author != nil {
		avatar = input.Author.Avatar
	}

	if err := c.hubService.SendChatMessage(ctx, &hub.SendChatMessageParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
		Content:      input.Content,
		Avatar:       avatar,
	}); err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	return nil
}

type TypingInput struct {
	RoomId   string `json:"roomId" validate:"required,max=128"`
	IsTyping bool   `json:"isTyping"`
}

func (c controller) handleTyping(ctx context.Context, input TypingInput) error {
	if err := c.hubService.Typing(ctx, &hub.TypingParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
		IsTyping:     input.IsTyping,
	}); err != nil {
		return fmt.Errorf("failed to send typing: %w", err)
	}

	return nil
}

type ChatHistoryInput struct {
	RoomId string `json:"roomId" validate:"required,max=128"`
	Limit  int    `json:"limit" validate:"gte=0"`
}

func (c controller) handleChatHistory(ctx context.Context, input ChatHistoryInput) error {
	if err := c.hubService.GetChatHistory(ctx, &hub.GetChatHistoryParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
		Limit:        input.Limit,
	}); err != nil {
		return fmt.Errorf("failed to get chat history: %w", err)
	}

	return nil
}

type VoiceInput struct {
	RoomId      string `json:"roomId" validate:"required,max=128"`
	UserId      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

func (c controller) handleJoinVoice(ctx context.Context, input VoiceInput) error {
	if err := c.hubService.JoinVoice(ctx, &hub.JoinVoiceParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to join voice: %w", err)
	}

	return nil
}

func (c controller) handleLeaveVoice(ctx context.Context, input VoiceInput) error {
	if err := c.hubService.LeaveVoice(ctx, &hub.LeaveVoiceParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to leave voice: %w", err)
	}

	return nil
}

type SpeakingInput struct {
	RoomId     string `json:"roomId" validate:"required,max=128"`
	UserId     string `json:"userId"`
	IsSpeaking bool   `json:"isSpeaking"`
}

func (c controller) handleSpeaking(ctx context.Context, input SpeakingInput) error {
	if err := c.hubService.Speaking(ctx, &hub.SpeakingParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
		IsSpeaking:   input.IsSpeaking,
	}); err != nil {
		return fmt.Errorf("failed to send speaking: %w", err)
	}

	return nil
}

type ScreenInput struct {
	RoomId string `json:"roomId" validate:"required,max=128"`
	UserId string `json:"userId"`
}

func (c controller) handleStartScreen(ctx context.Context, input ScreenInput) error {
	if err := c.hubService.StartScreen(ctx, &hub.ScreenParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to start screen: %w", err)
	}

	return nil
}

func (c controller) handleStopScreen(ctx context.Context, input ScreenInput) error {
	if err := c.hubService.StopScreen(ctx, &hub.ScreenParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to stop screen: %w", err)
	}

	return nil
}

func (c controller) handleRequestScreen(ctx context.Context, input ScreenInput) error {
	if err := c.hubService.RequestScreen(ctx, &hub.ScreenParams{
		ConnectionId: c.getConnectionIdFromCtx(ctx),
		RoomId:       input.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to request screen: %w", err)
	}

	return nil
}

type SignalInput struct {
	RoomId             string          `json:"roomId" validate:"required,max=128"`
	TargetConnectionId string          `json:"targetConnectionId" validate:"required"`
	Payload            json.RawMessage `json:"payload" validate:"required"`
}

func (c controller) handleSignal(namespace domain.Namespace, kind domain.SignalKind) func(context.Context, SignalInput) error {
	return func(ctx context.Context, input SignalInput) error {
		if err := c.hubService.Relay(ctx, &hub.RelayParams{
			ConnectionId: c.getConnectionIdFromCtx(ctx),
			Signal: domain.Signal{
				Namespace:          namespace,
				Kind:               kind,
				RoomId:             input.RoomId,
				TargetConnectionId: input.TargetConnectionId,
				Payload:            input.Payload,
			},
		}); err != nil {
			return fmt.Errorf("failed to relay %s: %w", namespace.EventType(kind), err)
		}

		return nil
	}
}
