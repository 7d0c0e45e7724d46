package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrEventNotFound = errors.New("local event does not exist")

type Repository interface {
	StoreEvent(ctx context.Context, userId int, event Event) (Event, error)
	UpdateEvent(ctx context.Context, userId int, event Event) (Event, error)
	DeleteEvent(ctx context.Context, userId int, id uuid.UUID) error
	FindEvents(ctx context.Context, userId int, from time.Time, to time.Time) ([]Event, error)
	FindAllEvents(ctx context.Context, userId int) ([]Event, error)
	GetPermission(ctx context.Context, userId int) (Permission, error)
	SetPermission(ctx context.Context, userId int, permission Permission) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) StoreEvent(ctx context.Context, userId int, event Event) (Event, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	attendees, err := json.Marshal(event.AttendeeEmails)
	if err != nil {
		return Event{}, err
	}
	query := `INSERT INTO local_events (id, user_id, title, start_time, end_time, location, attendee_emails)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.db.Exec(ctx, query, event.ID, userId, event.Title, event.StartTime, event.EndTime, event.Location, string(attendees))
	if err != nil {
		log.Errorf("failed to store local event: %v", err)
		return Event{}, err
	}
	return event, nil
}

func (r *RepositoryImpl) UpdateEvent(ctx context.Context, userId int, event Event) (Event, error) {
	attendees, err := json.Marshal(event.AttendeeEmails)
	if err != nil {
		return Event{}, err
	}
	query := `UPDATE local_events SET title = $1, start_time = $2, end_time = $3, location = $4, attendee_emails = $5
				WHERE id = $6 AND user_id = $7`
	tag, err := r.db.Exec(ctx, query, event.Title, event.StartTime, event.EndTime, event.Location, string(attendees), event.ID, userId)
	if err != nil {
		log.Errorf("failed to update local event %s: %v", event.ID, err)
		return Event{}, err
	}
	if tag.RowsAffected() == 0 {
		return Event{}, ErrEventNotFound
	}
	return event, nil
}

func (r *RepositoryImpl) DeleteEvent(ctx context.Context, userId int, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, "DELETE FROM local_events WHERE id = $1 AND user_id = $2", id, userId)
	if err != nil {
		log.Errorf("failed to delete local event %s: %v", id, err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) FindEvents(ctx context.Context, userId int, from time.Time, to time.Time) ([]Event, error) {
	query := `SELECT id, title, start_time, end_time, location, attendee_emails
				FROM local_events
				WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
				ORDER BY start_time`
	return r.queryEvents(ctx, query, userId, from, to)
}

func (r *RepositoryImpl) FindAllEvents(ctx context.Context, userId int) ([]Event, error) {
	query := `SELECT id, title, start_time, end_time, location, attendee_emails
				FROM local_events WHERE user_id = $1 ORDER BY start_time`
	return r.queryEvents(ctx, query, userId)
}

func (r *RepositoryImpl) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("failed to query local events: %v", err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var event Event
		var attendees string
		if err := rows.Scan(&event.ID, &event.Title, &event.StartTime, &event.EndTime, &event.Location, &attendees); err != nil {
			return nil, err
		}
		if attendees != "" {
			if err := json.Unmarshal([]byte(attendees), &event.AttendeeEmails); err != nil {
				log.Warnf("skipping malformed attendee list on local event %s: %v", event.ID, err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *RepositoryImpl) GetPermission(ctx context.Context, userId int) (Permission, error) {
	var status string
	err := r.db.QueryRow(ctx, "SELECT status FROM local_calendar_access WHERE user_id = $1", userId).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return PermissionNotDetermined, nil
	} else if err != nil {
		log.Errorf("failed to read local calendar permission for user %d: %v", userId, err)
		return PermissionNotDetermined, err
	}
	return Permission(status), nil
}

func (r *RepositoryImpl) SetPermission(ctx context.Context, userId int, permission Permission) error {
	query := `INSERT INTO local_calendar_access (user_id, status) VALUES ($1, $2)
				ON CONFLICT (user_id) DO UPDATE SET status = $2`
	_, err := r.db.Exec(ctx, query, userId, string(permission))
	if err != nil {
		log.Errorf("failed to set local calendar permission for user %d: %v", userId, err)
		return err
	}
	return nil
}
