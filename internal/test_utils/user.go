package test_utils

import (
	"context"

	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/Sachamoyne/Contactly/pkg/provider"
)

// TestUser is the profile placed into test contexts by ContextWithUser.
var TestUser = profile.User{
	Id:          123,
	Uid:         "test-user",
	DisplayName: "Test User",
	Email:       "me@example.com",
	Settings: profile.Settings{
		Timezone:          "Europe/Warsaw",
		CalendarProviders: []provider.Type{provider.TypeLocal, provider.TypeGoogle},
	},
}

// ContextWithUser returns a context carrying the default test user, the way
// the X-User-Id middleware would populate it.
func ContextWithUser(ctx context.Context) context.Context {
	return profile.WithUser(ctx, TestUser)
}

// ContextWithCustomUser returns a context carrying the given user.
func ContextWithCustomUser(ctx context.Context, user profile.User) context.Context {
	return profile.WithUser(ctx, user)
}
