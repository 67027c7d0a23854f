package domain

// Player is the authoritative playback state of a room.
type Player struct {
	VideoUrl    *string `json:"videoUrl"`
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
	LastUpdate  int64   `json:"lastUpdate"`
}

func (p Player) Clone() Player {
	if p.VideoUrl != nil {
		url := *p.VideoUrl
		p.VideoUrl = &url
	}

	return p
}

// Origin marks the connection a sync message came from and its position in
// that connection's sequence.
type Origin struct {
	ConnectionId string `json:"connectionId"`
	Seq          uint64 `json:"seq"`
}
