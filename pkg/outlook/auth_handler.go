package outlook

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
	"golang.org/x/oauth2/microsoft"
)

type authRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type authStatus struct {
	Authenticated bool   `json:"authenticated"`
	AccountEmail  string `json:"accountEmail"`
}

// OutlookAuth owns the interactive OAuth flow against the Microsoft identity
// platform ("common" tenant, so both personal and work accounts sign in).
type OutlookAuth struct {
	db          *pgxpool.Pool
	creds       credentials.Store
	userService profile.Service
	oauthConfig *oauth2.Config
	graphURL    string
}

func NewOutlookAuth(db *pgxpool.Pool, creds credentials.Store, userService profile.Service, cfg config.Application) *OutlookAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Microsoft.ClientId,
		ClientSecret: cfg.Microsoft.ClientSecret,
		Endpoint:     microsoft.AzureADEndpoint("common"),
		RedirectURL:  cfg.Host + "/api/integrations/outlook/auth/callback",
		Scopes:       []string{"https://graph.microsoft.com/Calendars.Read", "https://graph.microsoft.com/User.Read", "offline_access"},
	}

	return &OutlookAuth{db: db, creds: creds, userService: userService, oauthConfig: oauthConfig, graphURL: defaultBaseURL}
}

func (o *OutlookAuth) validateConfiguration() error {
	if strings.TrimSpace(o.oauthConfig.ClientID) == "" || strings.TrimSpace(o.oauthConfig.ClientSecret) == "" {
		return provider.ErrMissingConfiguration
	}
	if _, err := uuid.Parse(o.oauthConfig.ClientID); err != nil {
		// Azure application ids are UUIDs; anything else is a broken deployment
		return provider.ErrInvalidClientConfiguration
	}
	return nil
}

func (o *OutlookAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := o.validateConfiguration(); err != nil {
		log.Errorf("Outlook OAuth is misconfigured: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		o.encodeError(w, "Outlook integration is misconfigured")
		return
	}

	currentUser, err := o.userService.GetCurrentUser(r.Context())
	if err != nil {
		log.Error("unable to retrieve current user: ", err)
		http.Error(w, "unable to retrieve current user", http.StatusInternalServerError)
		return
	}
	userId := currentUser.Id

	_, err = o.db.Exec(r.Context(), "DELETE FROM oauth_state WHERE user_id = $1 AND provider = $2",
		userId, string(provider.TypeOutlook))
	if err != nil {
		log.Errorf("failed to delete old Outlook auth state for user %d: %v", userId, err)
		w.WriteHeader(http.StatusInternalServerError)
		o.encodeError(w, "Failed to handle Outlook authentication")
		return
	}

	stateNonce := uuid.New().String()
	finalUrl := r.URL.Query().Get("finalUrl")

	_, err = o.db.Exec(r.Context(), "INSERT INTO oauth_state (user_id, provider, nonce) VALUES ($1, $2, $3)",
		userId, string(provider.TypeOutlook), stateNonce)
	if err != nil {
		log.Errorf("failed to store Outlook auth nonce for user %d: %v", userId, err)
		w.WriteHeader(http.StatusInternalServerError)
		o.encodeError(w, "Failed to handle Outlook authentication")
		return
	}

	log.Tracef("Redirecting to Microsoft auth URL with nonce: %s", stateNonce)
	u := o.oauthConfig.AuthCodeURL(finalUrl + "|" + stateNonce)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(authRedirect{RedirectUrl: u}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (o *OutlookAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
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
	err := o.db.QueryRow(r.Context(), "SELECT user_id FROM oauth_state WHERE provider = $1 AND nonce = $2",
		string(provider.TypeOutlook), nonce).Scan(&userId)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Warnf("Outlook auth callback with unknown nonce: %s", nonce)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	} else if err != nil {
		log.Errorf("failed to look up Outlook auth nonce: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	token, err := o.oauthConfig.Exchange(context.Background(), code)
	if err != nil {
		log.Errorf("unable to exchange code for Microsoft token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	if token.AccessToken == "" {
		log.Error("Microsoft token exchange returned no access token")
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	accountEmail, err := o.fetchAccountEmail(r.Context(), token.AccessToken)
	if err != nil {
		log.Warnf("unable to resolve Outlook account email: %v", err)
	}

	err = o.creds.Save(r.Context(), userId, provider.TypeOutlook, credentials.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		AccountEmail: accountEmail,
	})
	if err != nil {
		log.Errorf("unable to store Outlook credential for user %d: %v", userId, err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	if _, err := o.db.Exec(r.Context(), "DELETE FROM oauth_state WHERE provider = $1 AND nonce = $2",
		string(provider.TypeOutlook), nonce); err != nil {
		log.Warnf("failed to clean up Outlook auth nonce: %v", err)
	}

	log.Debugf("Successfully stored Outlook credential for user %d", userId)
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

// fetchAccountEmail reads the signed-in account through the Graph /me
// endpoint. Personal accounts often leave "mail" empty, in which case the
// userPrincipalName carries the address.
func (o *OutlookAuth) fetchAccountEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", o.graphURL+"/me", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Microsoft Graph returned non-OK status: %d", resp.StatusCode)
	}

	var me struct {
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return "", err
	}
	if me.Mail != "" {
		return provider.NormalizeEmail(me.Mail), nil
	}
	return provider.NormalizeEmail(me.UserPrincipalName), nil
}

func (o *OutlookAuth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userId, err := profile.CurrentId(r.Context())
	if err != nil {
		log.Error("unable to retrieve current user: ", err)
		http.Error(w, "unable to retrieve current user", http.StatusInternalServerError)
		return
	}

	if err := o.creds.Clear(r.Context(), userId, provider.TypeOutlook); err != nil {
		log.Errorf("failed to clear Outlook credential for user %d: %v", userId, err)
		w.WriteHeader(http.StatusInternalServerError)
		o.encodeError(w, "Failed to handle Outlook sign-out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (o *OutlookAuth) IsAuthenticated(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userId, err := profile.CurrentId(r.Context())
	if err != nil {
		http.Error(w, "unable to retrieve current user", http.StatusInternalServerError)
		return
	}

	cred, _ := o.creds.Read(r.Context(), userId, provider.TypeOutlook)
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

func (o *OutlookAuth) encodeError(w http.ResponseWriter, message string) {
	if err := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: message}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
