package credentials

import (
	"context"
	"errors"
	"time"

	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type StoreImpl struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *StoreImpl {
	return &StoreImpl{db: db}
}

func (s *StoreImpl) Save(ctx context.Context, userId int, p provider.Type, cred Credential) error {
	query := `INSERT INTO provider_credentials (user_id, provider, access_token, refresh_token, expiry, account_email)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (user_id, provider) DO UPDATE
				SET access_token = $3, refresh_token = $4, expiry = $5, account_email = $6`
	_, err := s.db.Exec(ctx, query, userId, string(p), cred.AccessToken, cred.RefreshToken, cred.Expiry.Unix(), cred.AccountEmail)
	if err != nil {
		log.Errorf("failed to store %s credential for user %d: %v", p, userId, err)
		return err
	}
	return nil
}

func (s *StoreImpl) Read(ctx context.Context, userId int, p provider.Type) (*Credential, error) {
	query := `SELECT access_token, refresh_token, expiry, account_email
				FROM provider_credentials WHERE user_id = $1 AND provider = $2`
	var cred Credential
	var expiryTimestamp int64
	err := s.db.QueryRow(ctx, query, userId, string(p)).
		Scan(&cred.AccessToken, &cred.RefreshToken, &expiryTimestamp, &cred.AccountEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		// An unreadable store is equivalent to "no token"; the client will
		// surface ErrNotSignedIn and the user can reconnect.
		log.Errorf("failed to read %s credential for user %d: %v", p, userId, err)
		return nil, nil
	}
	cred.Expiry = time.Unix(expiryTimestamp, 0)
	return &cred, nil
}

func (s *StoreImpl) Clear(ctx context.Context, userId int, p provider.Type) error {
	_, err := s.db.Exec(ctx, "DELETE FROM provider_credentials WHERE user_id = $1 AND provider = $2", userId, string(p))
	if err != nil {
		log.Errorf("failed to clear %s credential for user %d: %v", p, userId, err)
		return err
	}
	return nil
}
