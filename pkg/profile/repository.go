package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user does not exist")

type Repository interface {
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, userId int, user User) (User, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) CreateUser(ctx context.Context, user User) (int, error) {
	calendarProvider := user.Settings.CalendarProvider
	if calendarProvider == "" {
		calendarProvider = provider.TypeNone
	}
	query := `INSERT INTO users (uid, display_name, email, timezone, calendar_provider, calendar_providers)
				VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id int
	err := r.db.QueryRow(ctx, query,
		user.Uid,
		user.DisplayName,
		user.Email,
		user.Settings.Timezone,
		string(calendarProvider),
		encodeProviders(user.Settings.CalendarProviders),
	).Scan(&id)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return 0, err
	}
	return id, nil
}

func (r *RepositoryImpl) GetUser(ctx context.Context, id int) (User, error) {
	return r.getUser(ctx, "id = $1", id)
}

func (r *RepositoryImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return r.getUser(ctx, "uid = $1", uid)
}

func (r *RepositoryImpl) getUser(ctx context.Context, where string, arg any) (User, error) {
	query := `SELECT id, uid, display_name, email, timezone, calendar_provider, calendar_providers
				FROM users WHERE ` + where
	var user User
	var calendarProvider string
	var calendarProviders string
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.Id,
		&user.Uid,
		&user.DisplayName,
		&user.Email,
		&user.Settings.Timezone,
		&calendarProvider,
		&calendarProviders,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	user.Settings.CalendarProvider = provider.Type(calendarProvider)
	user.Settings.CalendarProviders = decodeProviders(calendarProviders)
	return user, nil
}

func (r *RepositoryImpl) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	query := `UPDATE users SET display_name = $1, email = $2, timezone = $3, calendar_provider = $4, calendar_providers = $5
				WHERE id = $6`
	_, err := r.db.Exec(ctx, query,
		user.DisplayName,
		user.Email,
		user.Settings.Timezone,
		string(user.Settings.CalendarProvider),
		encodeProviders(user.Settings.CalendarProviders),
		userId,
	)
	if err != nil {
		log.Errorf("failed to update user %d: %v", userId, err)
		return User{}, err
	}
	user.Id = userId
	return user, nil
}

func encodeProviders(providers []provider.Type) string {
	parts := make([]string, 0, len(providers))
	for _, p := range providers {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ",")
}

func decodeProviders(encoded string) []provider.Type {
	if encoded == "" {
		return nil
	}
	var providers []provider.Type
	for _, part := range strings.Split(encoded, ",") {
		p, err := provider.ParseType(strings.TrimSpace(part))
		if err != nil {
			log.Warnf("skipping unknown stored calendar provider %q", part)
			continue
		}
		providers = append(providers, p)
	}
	return providers
}
