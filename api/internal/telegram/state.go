package telegram

import (
	"sync"

	"figurdle/api/internal/game"
)

// session is one chat's progress through a day's puzzle.
type session struct {
	mu       sync.Mutex
	ticket   game.Ticket
	revealed int
	done     bool
}

// sessions: chatID -> *session
type sessions struct{ m sync.Map }

func (s *sessions) get(chatID int64) (*session, bool) {
	v, ok := s.m.Load(chatID)
	if !ok {
		return nil, false
	}
	return v.(*session), true
}

// current returns the chat's session for t, replacing one left over from an
// earlier day. fresh reports whether a new session was started.
func (s *sessions) current(chatID int64, t game.Ticket) (ss *session, fresh bool) {
	if old, ok := s.get(chatID); ok {
		old.mu.Lock()
		same := old.ticket.PuzzleDate == t.PuzzleDate
		old.mu.Unlock()
		if same {
			return old, false
		}
	}
	ss = &session{ticket: t}
	s.m.Store(chatID, ss)
	return ss, true
}
