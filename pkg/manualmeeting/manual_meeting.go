package manualmeeting

import (
	"time"

	"github.com/google/uuid"
)

// ManualMeeting is a user-entered meeting tied to a contact, independent of
// any calendar provider.
type ManualMeeting struct {
	ID        uuid.UUID
	ContactID uuid.UUID
	Date      time.Time
	Occasion  string
	Notes     string
}
