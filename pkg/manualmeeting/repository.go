package manualmeeting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrMeetingNotFound = errors.New("manual meeting does not exist")

type Repository interface {
	Store(ctx context.Context, userId int, meeting ManualMeeting) (ManualMeeting, error)
	Update(ctx context.Context, userId int, meeting ManualMeeting) (ManualMeeting, error)
	Delete(ctx context.Context, userId int, id uuid.UUID) error
	FindById(ctx context.Context, userId int, id uuid.UUID) (ManualMeeting, error)
	// FindByDate returns the meetings falling on the same calendar day as
	// date, ordered by time.
	FindByDate(ctx context.Context, userId int, date time.Time) ([]ManualMeeting, error)
	// FindByContact returns all meetings logged with a contact, newest first.
	FindByContact(ctx context.Context, userId int, contactId uuid.UUID) ([]ManualMeeting, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, userId int, meeting ManualMeeting) (ManualMeeting, error) {
	if meeting.ID == uuid.Nil {
		meeting.ID = uuid.New()
	}
	query := `INSERT INTO manual_meetings (id, user_id, contact_id, meeting_date, occasion, notes)
				VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query, meeting.ID, userId, meeting.ContactID, meeting.Date, meeting.Occasion, meeting.Notes)
	if err != nil {
		log.Errorf("failed to store manual meeting: %v", err)
		return ManualMeeting{}, err
	}
	return meeting, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, userId int, meeting ManualMeeting) (ManualMeeting, error) {
	query := `UPDATE manual_meetings SET contact_id = $1, meeting_date = $2, occasion = $3, notes = $4
				WHERE id = $5 AND user_id = $6`
	tag, err := r.db.Exec(ctx, query, meeting.ContactID, meeting.Date, meeting.Occasion, meeting.Notes, meeting.ID, userId)
	if err != nil {
		log.Errorf("failed to update manual meeting %s: %v", meeting.ID, err)
		return ManualMeeting{}, err
	}
	if tag.RowsAffected() == 0 {
		return ManualMeeting{}, ErrMeetingNotFound
	}
	return meeting, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, "DELETE FROM manual_meetings WHERE id = $1 AND user_id = $2", id, userId)
	if err != nil {
		log.Errorf("failed to delete manual meeting %s: %v", id, err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) FindById(ctx context.Context, userId int, id uuid.UUID) (ManualMeeting, error) {
	query := `SELECT id, contact_id, meeting_date, occasion, notes
				FROM manual_meetings WHERE id = $1 AND user_id = $2`
	var meeting ManualMeeting
	err := r.db.QueryRow(ctx, query, id, userId).
		Scan(&meeting.ID, &meeting.ContactID, &meeting.Date, &meeting.Occasion, &meeting.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return ManualMeeting{}, ErrMeetingNotFound
	} else if err != nil {
		log.Errorf("failed to find manual meeting %s: %v", id, err)
		return ManualMeeting{}, err
	}
	return meeting, nil
}

func (r *RepositoryImpl) FindByContact(ctx context.Context, userId int, contactId uuid.UUID) ([]ManualMeeting, error) {
	query := `SELECT id, contact_id, meeting_date, occasion, notes
				FROM manual_meetings
				WHERE user_id = $1 AND contact_id = $2
				ORDER BY meeting_date DESC`
	rows, err := r.db.Query(ctx, query, userId, contactId)
	if err != nil {
		log.Errorf("failed to list manual meetings for contact %s: %v", contactId, err)
		return nil, err
	}
	defer rows.Close()

	meetings := make([]ManualMeeting, 0)
	for rows.Next() {
		var meeting ManualMeeting
		if err := rows.Scan(&meeting.ID, &meeting.ContactID, &meeting.Date, &meeting.Occasion, &meeting.Notes); err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	return meetings, rows.Err()
}

func (r *RepositoryImpl) FindByDate(ctx context.Context, userId int, date time.Time) ([]ManualMeeting, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `SELECT id, contact_id, meeting_date, occasion, notes
				FROM manual_meetings
				WHERE user_id = $1 AND meeting_date >= $2 AND meeting_date < $3
				ORDER BY meeting_date`
	rows, err := r.db.Query(ctx, query, userId, dayStart, dayEnd)
	if err != nil {
		log.Errorf("failed to list manual meetings: %v", err)
		return nil, err
	}
	defer rows.Close()

	meetings := make([]ManualMeeting, 0)
	for rows.Next() {
		var meeting ManualMeeting
		if err := rows.Scan(&meeting.ID, &meeting.ContactID, &meeting.Date, &meeting.Occasion, &meeting.Notes); err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	return meetings, rows.Err()
}
