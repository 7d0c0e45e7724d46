package contact

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrContactNotFound = errors.New("contact does not exist")

type Repository interface {
	Store(ctx context.Context, userId int, contact Contact) (Contact, error)
	Update(ctx context.Context, userId int, contact Contact) (Contact, error)
	Delete(ctx context.Context, userId int, id uuid.UUID) error
	FindById(ctx context.Context, userId int, id uuid.UUID) (Contact, error)
	FindAll(ctx context.Context, userId int) ([]Contact, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Store(ctx context.Context, userId int, contact Contact) (Contact, error) {
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	query := `INSERT INTO contacts (id, user_id, first_name, last_name, company, email, phone, notes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query,
		contact.ID, userId, contact.FirstName, contact.LastName, contact.Company,
		contact.Email, contact.Phone, contact.Notes, contact.CreatedAt,
	)
	if err != nil {
		log.Errorf("failed to store contact: %v", err)
		return Contact{}, err
	}
	return contact, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, userId int, contact Contact) (Contact, error) {
	query := `UPDATE contacts SET first_name = $1, last_name = $2, company = $3, email = $4, phone = $5, notes = $6
				WHERE id = $7 AND user_id = $8`
	tag, err := r.db.Exec(ctx, query,
		contact.FirstName, contact.LastName, contact.Company, contact.Email,
		contact.Phone, contact.Notes, contact.ID, userId,
	)
	if err != nil {
		log.Errorf("failed to update contact %s: %v", contact.ID, err)
		return Contact{}, err
	}
	if tag.RowsAffected() == 0 {
		return Contact{}, ErrContactNotFound
	}
	return contact, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, userId int, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, "DELETE FROM contacts WHERE id = $1 AND user_id = $2", id, userId)
	if err != nil {
		log.Errorf("failed to delete contact %s: %v", id, err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) FindById(ctx context.Context, userId int, id uuid.UUID) (Contact, error) {
	query := `SELECT id, first_name, last_name, company, email, phone, notes, created_at
				FROM contacts WHERE id = $1 AND user_id = $2`
	var contact Contact
	err := r.db.QueryRow(ctx, query, id, userId).Scan(
		&contact.ID, &contact.FirstName, &contact.LastName, &contact.Company,
		&contact.Email, &contact.Phone, &contact.Notes, &contact.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrContactNotFound
	} else if err != nil {
		log.Errorf("failed to find contact %s: %v", id, err)
		return Contact{}, err
	}
	return contact, nil
}

func (r *RepositoryImpl) FindAll(ctx context.Context, userId int) ([]Contact, error) {
	query := `SELECT id, first_name, last_name, company, email, phone, notes, created_at
				FROM contacts WHERE user_id = $1 ORDER BY last_name, first_name`
	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		log.Errorf("failed to list contacts: %v", err)
		return nil, err
	}
	defer rows.Close()

	contacts := make([]Contact, 0)
	for rows.Next() {
		var contact Contact
		if err := rows.Scan(
			&contact.ID, &contact.FirstName, &contact.LastName, &contact.Company,
			&contact.Email, &contact.Phone, &contact.Notes, &contact.CreatedAt,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}
