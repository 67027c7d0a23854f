package room

import (
	"sort"

	"github.com/watchparty/synchub/internal/domain"
)

// State is the mutable part of a room. It is only reachable through the store's
// Update, which holds the room's lock for the duration of the call.
type State struct {
	Player *domain.Player
	voice  map[string]domain.VoiceMember
}

// UpsertVoiceMember adds or replaces the roster entry and reports whether the
// user was not in the roster before.
func (s *State) UpsertVoiceMember(member domain.VoiceMember) bool {
	if s.voice == nil {
		s.voice = make(map[string]domain.VoiceMember)
	}

	_, existed := s.voice[member.UserId]
	s.voice[member.UserId] = member

	return !existed
}

// RemoveVoiceMember reports whether userId was in the roster.
func (s *State) RemoveVoiceMember(userId string) bool {
	if _, ok := s.voice[userId]; !ok {
		return false
	}

	delete(s.voice, userId)
	return true
}

// Empty reports whether the room has neither a player nor voice members.
func (s *State) Empty() bool {
	return s.Player == nil && len(s.voice) == 0
}

// VoiceUserIds returns the set of user ids in the roster.
func (s *State) VoiceUserIds() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.voice))
	for id := range s.voice {
		ids[id] = struct{}{}
	}

	return ids
}

// VoiceMembers returns the roster ordered by user id.
func (s *State) VoiceMembers() []domain.VoiceMember {
	members := make([]domain.VoiceMember, 0, len(s.voice))
	for _, m := range s.voice {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserId < members[j].UserId })

	return members
}
