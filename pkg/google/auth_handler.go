package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Sachamoyne/Contactly/internal/config"
	"github.com/Sachamoyne/Contactly/internal/rest"
	"github.com/Sachamoyne/Contactly/pkg/credentials"
	"github.com/Sachamoyne/Contactly/pkg/profile"
	"github.com/Sachamoyne/Contactly/pkg/provider"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const clientIdSuffix = ".apps.googleusercontent.com"

type authRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type authStatus struct {
	Authenticated bool   `json:"authenticated"`
	AccountEmail  string `json:"accountEmail"`
}

// GoogleAuth owns the interactive OAuth flow for Google Calendar. Tokens end
// up in the credential store; this type never hands them out to callers.
type GoogleAuth struct {
	db          *pgxpool.Pool
	creds       credentials.Store
	userService profile.Service
	oauthConfig *oauth2.Config
}

func NewGoogleAuth(db *pgxpool.Pool, creds credentials.Store, userService profile.Service, cfg config.Application) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		RedirectURL:  cfg.Host + "/api/integrations/google/auth/callback",
		Scopes:       []string{gcal.CalendarReadonlyScope},
	}

	return &GoogleAuth{db: db, creds: creds, userService: userService, oauthConfig: oauthConfig}
}

// validateConfiguration fails fast on a misconfigured OAuth client. These are
// deployment errors and must never reach the consent screen.
func (g *GoogleAuth) validateConfiguration() error {
	if strings.TrimSpace(g.oauthConfig.ClientID) == "" || strings.TrimSpace(g.oauthConfig.ClientSecret) == "" {
		return provider.ErrMissingConfiguration
	}
	if !strings.HasSuffix(g.oauthConfig.ClientID, clientIdSuffix) {
		return provider.ErrInvalidClientConfiguration
	}
	return nil
}

func (g *GoogleAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := g.validateConfiguration(); err != nil {
		log.Errorf("Google OAuth is misconfigured: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		g.encodeError(w, "Google integration is misconfigured")
		return
	}

	currentUser, err := g.userService.GetCurrentUser(r.Context())
	if err != nil {
		log.Error("unable to retrieve current user: ", err)
		http.Error(w, "unable to retrieve current user", http.StatusInternalServerError)
		return
	}
	userId := currentUser.Id

	_, err = g.db.Exec(r.Context(), "DELETE FROM oauth_state WHERE user_id = $1 AND provider = $2",
		userId, string(provider.TypeGoogle))
	if err != nil {
		log.Errorf("failed to delete old Google auth state for user %d: %v", userId, err)
		w.WriteHeader(http.StatusInternalServerError)
		g.encodeError(w, "Failed to handle Google authentication")
		return
	}

	stateNonce := uuid.New().String()
	finalUrl := r.URL.Query().Get("finalUrl")

	_, err = g.db.Exec(r.Context(), "INSERT INTO oauth_state (user_id, provider, nonce) VALUES ($1, $2, $3)",
		userId, string(provider.TypeGoogle), stateNonce)
	if err != nil {
		log.Errorf("failed to store Google auth nonce for user %d: %v", userId, err)
		w.WriteHeader(http.StatusInternalServerError)
		g.encodeError(w, "Failed to handle Google authentication")
		return
	}

	log.Tracef("Redirecting to Google auth URL with nonce: %s", stateNonce)
	u := g.oauthConfig.AuthCodeURL(finalUrl+"|"+stateNonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(authRedirect{RedirectUrl: u}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (g *GoogleAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	state := r.FormValue("state")

	parts := strings.SplitN(state, "|", 2)
	if len(parts) != 2 {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	finalUrl := parts[0]
	nonce := parts[1]

	var userId int
	err := g.db.QueryRow(r.Context(), "SELECT user_id FROM oauth_state WHERE provider = $1 AND nonce = $2",
		string(provider.TypeGoogle), nonce).Scan(&userId)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Warnf("Google auth callback with unknown nonce: %s", nonce)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	} else if err != nil {
		log.Errorf("failed to look up Google auth nonce: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	token, err := g.oauthConfig.Exchange(context.Background(), code)
	if err != nil {
		log.Errorf("unable to exchange code for Google token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	if token.AccessToken == "" {
		log.Error("Google token exchange returned no access token")
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	accountEmail, err := g.fetchAccountEmail(r.Context(), token)
	if err != nil {
		// The email only feeds attendee filtering; a failed lookup must not
		// lose a freshly obtained token.
		log.Warnf("unable to resolve Google account email: %v", err)
	}

	err = g.creds.Save(r.Context(), userId, provider.TypeGoogle, credentials.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		AccountEmail: accountEmail,
	})
	if err != nil {
		log.Errorf("unable to store Google credential for user %d: %v", userId, err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	if _, err := g.db.Exec(r.Context(), "DELETE FROM oauth_state WHERE provider = $1 AND nonce = $2",
		string(provider.TypeGoogle), nonce); err != nil {
		log.Warnf("failed to clean up Google auth nonce: %v", err)
	}

	log.Debugf("Successfully stored Google credential for user %d", userId)
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

// fetchAccountEmail resolves the signed-in account's address. The id of the
// "primary" calendar is the account email.
func (g *GoogleAuth) fetchAccountEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	service, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("unable to build Google Calendar client: %w", err)
	}
	cal, err := service.Calendars.Get("primary").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to read primary calendar: %w", err)
	}
	return provider.NormalizeEmail(cal.Id), nil
}

func (g *GoogleAuth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userId, err := profile.CurrentId(r.Context())
	if err != nil {
		log.Error("unable to retrieve current user: ", err)
		http.Error(w, "unable to retrieve current user", http.StatusInternalServerError)
		return
	}

	if err := g.creds.Clear(r.Context(), userId, provider.TypeGoogle); err != nil {
		log.Errorf("failed to clear Google credential for user %d: %v", userId, err)
		w.WriteHeader(http.StatusInternalServerError)
		g.encodeError(w, "Failed to handle Google sign-out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *GoogleAuth) IsAuthenticated(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userId, err := profile.CurrentId(r.Context())
	if err != nil {
		http.Error(w, "unable to retrieve current user", http.StatusInternalServerError)
		return
	}

	cred, _ := g.creds.Read(r.Context(), userId, provider.TypeGoogle)
	status := authStatus{}
	if cred != nil && (cred.AccessToken != "" || cred.RefreshToken != "") {
		status.Authenticated = true
		status.AccountEmail = cred.AccountEmail
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (g *GoogleAuth) encodeError(w http.ResponseWriter, message string) {
	if err := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: message}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
