package hub

import (
	"context"

	"github.com/watchparty/synchub/internal/domain"
	"github.com/watchparty/synchub/internal/repository/room"
)

// Playback is last-writer-wins in arrival order. There is no host check and no
// bounds validation of currentTime.

func setVideo(url string, now int64) *domain.Player {
	return &domain.Player{
		VideoUrl:    &url,
		CurrentTime: 0,
		IsPlaying:   false,
		LastUpdate:  now,
	}
}

func setPlaying(p *domain.Player, isPlaying bool, currentTime float64, now int64) *domain.Player {
	if p == nil {
		p = &domain.Player{}
	}

	p.IsPlaying = isPlaying
	p.CurrentTime = currentTime
	p.LastUpdate = now

	return p
}

func seek(p *domain.Player, currentTime float64, now int64) *domain.Player {
	if p == nil {
		p = &domain.Player{}
	}

	p.CurrentTime = currentTime
	p.LastUpdate = now

	return p
}

type PlaybackParams struct {
	ConnectionId string
	RoomId       string
	CurrentTime  float64
}

func (s service) Play(ctx context.Context, params *PlaybackParams) error {
	return s.updatePlayback(ctx, EventVideoPlay, params, func(p *domain.Player, now int64) *domain.Player {
		return setPlaying(p, true, params.CurrentTime, now)
	})
}

func (s service) Pause(ctx context.Context, params *PlaybackParams) error {
	return s.updatePlayback(ctx, EventVideoPause, params, func(p *domain.Player, now int64) *domain.Player {
		return setPlaying(p, false, params.CurrentTime, now)
	})
}

func (s service) Seek(ctx context.Context, params *PlaybackParams) error {
	return s.updatePlayback(ctx, EventVideoSeek, params, func(p *domain.Player, now int64) *domain.Player {
		return seek(p, params.CurrentTime, now)
	})
}

func (s service) updatePlayback(
	ctx context.Context,
	event string,
	params *PlaybackParams,
	transition func(p *domain.Player, now int64) *domain.Player,
) error {
	conn, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	return s.updateRoom(params.RoomId, func(state *room.State) error {
		state.Player = transition(state.Player, s.now().UnixMilli())

		return s.broadcast(ctx, params.RoomId, conn.Id, event, VideoTimeOutput{
			CurrentTime: params.CurrentTime,
			Origin:      domain.Origin{ConnectionId: conn.Id, Seq: conn.NextSeq()},
		})
	})
}

type SetVideoParams struct {
	ConnectionId string
	RoomId       string
	VideoUrl     string
}

// SetVideo is the only transition that changes the room's video.
func (s service) SetVideo(ctx context.Context, params *SetVideoParams) error {
	conn, err := s.getConn(params.ConnectionId)
	if err != nil {
		return err
	}

	return s.updateRoom(params.RoomId, func(state *room.State) error {
		state.Player = setVideo(params.VideoUrl, s.now().UnixMilli())

		return s.broadcast(ctx, params.RoomId, conn.Id, EventVideoChange, VideoChangeOutput{
			VideoUrl: params.VideoUrl,
			Origin:   domain.Origin{ConnectionId: conn.Id, Seq: conn.NextSeq()},
		})
	})
}

// Snapshot returns a copy of the room's playback state.
func (s service) Snapshot(roomId string) (domain.Player, error) {
	return s.roomRepo.GetPlayer(roomId)
}
