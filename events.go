package kinetraj

import (
	"time"

	"github.com/google/uuid"
)

// Event is a diagnostic message meant for a status line. Events are
// advisory; nothing depends on them being shown.
type Event struct {
	LoadID   uuid.UUID     //identifies the load that produced the event
	Message  string
	Duration time.Duration //how long the message should stay visible, 0 means until replaced
}

func (E Event) String() string {
	return E.Message
}

// Notifier receives events, synchronously.
type Notifier func(Event)
