package event_bus

const (
	// LocalCalendarChangedEvent is published on every mutation of a user's
	// local calendar events.
	LocalCalendarChangedEvent EventType = "local_calendar.changed"
	// LocalCalendarRefreshedEvent is published after the debounce window
	// when the local calendar content fingerprint actually differs.
	LocalCalendarRefreshedEvent EventType = "local_calendar.refreshed"
)

type LocalCalendarChanged struct {
	UserId int
}

type LocalCalendarRefreshed struct {
	UserId      int
	Fingerprint string
}
