package contact

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Contact is a relationship record. Only Email and the display name are used
// for meeting matching; everything else belongs to the contact book feature.
type Contact struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Company   string
	Email     string
	Phone     string
	Notes     string
	CreatedAt time.Time
}

func (c Contact) FullName() string {
	parts := make([]string, 0, 2)
	for _, part := range []string{c.FirstName, c.LastName} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}
