package roles

import (
	"github.com/rs/zerolog"
)

// Update is what a role session emits after handling an intent: the
// current state rendered for display plus a one-line message. The
// display layer consumes these from the session's channel instead of
// being called back into.
type Update struct {
	Snapshot string
	Message  string
}

const updateBuffer = 16

// session holds the update channel shared by every role session.
type session struct {
	updates chan Update
	logger  zerolog.Logger
}

func newSession(logger zerolog.Logger, component string) session {
	return session{
		updates: make(chan Update, updateBuffer),
		logger:  logger.With().Str("session", component).Logger(),
	}
}

// Updates returns the channel the display layer reads.
func (s *session) Updates() <-chan Update {
	return s.updates
}

// emit publishes an update without ever blocking the intent path; a
// display that has fallen behind loses the oldest unread update.
func (s *session) emit(snapshot, message string) {
	u := Update{Snapshot: snapshot, Message: message}
	for {
		select {
		case s.updates <- u:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}
