package localstore

import (
	"time"

	"github.com/google/uuid"
)

// Permission is the tri-state access model of the local calendar store.
// Unlike the cloud providers there is no OAuth here: access is granted or
// denied per user and checked on every call.
type Permission string

const (
	PermissionNotDetermined Permission = "not_determined"
	PermissionDenied        Permission = "denied"
	PermissionGranted       Permission = "granted"
)

// Event is one event in the user's local calendar store.
type Event struct {
	ID             uuid.UUID
	Title          string
	StartTime      time.Time
	EndTime        time.Time
	Location       string
	AttendeeEmails []string
}
