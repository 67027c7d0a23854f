package hub

import (
	"context"

	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/repository/room"
)

type JoinVoiceParams struct {
	ConnectionId string
	RoomId       string
}

// JoinVoice adds the user to the room's voice roster, replies with the roster
// as it was before the join and announces the joiner to the rest of the room.
// Joining again refreshes the roster entry and announces again so peers can
// renegotiate.
func (s service) JoinVoice(ctx context.Context, params *JoinVoiceParams) error {
	conn, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	return s.updateRoom(params.RoomId, func(state *room.State) error {
		participants := make([]domain.VoiceMember, 0)
		for _, m := range state.VoiceMembers() {
			if m.UserId != conn.Identity.UserId {
				participants = append(participants, m)
			}
		}

		state.UpsertVoiceMember(domain.VoiceMember{
			UserId:      conn.Identity.UserId,
			DisplayName: conn.Identity.DisplayName,
		})

		if err := s.sendToConn(ctx, conn, EventVoiceParticipants, VoiceParticipantsOutput{
			RoomId:       params.RoomId,
			Participants: participants,
		}); err != nil {
			return err
		}

		return s.broadcast(ctx, params.RoomId, conn.Id, EventVoiceUserJoined, presenceOf(conn))
	})
}

type LeaveVoiceParams struct {
	ConnectionId string
	RoomId       string
}

// LeaveVoice drops the user from the roster and announces the departure even
// when the user was not in it, so peers tear down any stale connection.
func (s service) LeaveVoice(ctx context.Context, params *LeaveVoiceParams) error {
	conn, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	return s.updateRoom(params.RoomId, func(state *room.State) error {
		state.RemoveVoiceMember(conn.Identity.UserId)

		return s.broadcast(ctx, params.RoomId, conn.Id, EventVoiceUserLeft, VoiceLeftOutput{
			UserId:       conn.Identity.UserId,
			ConnectionId: conn.Id,
		})
	})
}

type SpeakingParams struct {
	ConnectionId string
	RoomId       string
	IsSpeaking   bool
}

func (s service) Speaking(ctx context.Context, params *SpeakingParams) error {
	conn, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	return s.broadcast(ctx, params.RoomId, conn.Id, EventVoiceSpeaking, SpeakingOutput{
		UserId:     conn.Identity.UserId,
		IsSpeaking: params.IsSpeaking,
	})
}
