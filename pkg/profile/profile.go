package profile

import (
	"github.com/Sachamoyne/Contactly/pkg/provider"
)

type User struct {
	Id          int
	Uid         string
	DisplayName string
	// Email is the manually entered profile email. A connected cloud
	// account's email takes priority over it during sync.
	Email    string
	Settings Settings
}

type Settings struct {
	Timezone string
	// CalendarProvider is the single selection used in the simple mode.
	CalendarProvider provider.Type
	// CalendarProviders is the configured subset used in the multi-provider
	// mode. When non-empty it takes precedence over CalendarProvider.
	CalendarProviders []provider.Type
}

// ActiveProviders resolves the provider set a sync cycle should fan out to.
func (s Settings) ActiveProviders() []provider.Type {
	configured := make([]provider.Type, 0, len(s.CalendarProviders))
	for _, p := range s.CalendarProviders {
		if p != provider.TypeNone {
			configured = append(configured, p)
		}
	}
	if len(configured) > 0 {
		return configured
	}
	if s.CalendarProvider == provider.TypeNone || s.CalendarProvider == "" {
		return nil
	}
	return []provider.Type{s.CalendarProvider}
}
