package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fanalyst/trading-api/internal/response"
	"github.com/fanalyst/trading-api/internal/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleProfile is the normalized identity extracted from a verified token.
type GoogleProfile struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

var (
	tokenInfoEndpoint = "https://oauth2.googleapis.com/tokeninfo"
	verifyTimeout     = 10 * time.Second
)

// VerifyGoogleIDToken validates an ID token against Google's tokeninfo
// endpoint and checks its audience against the configured allow-list.
func VerifyGoogleIDToken(ctx context.Context, idToken string) (*GoogleProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	reqURL := tokenInfoEndpoint + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		GoogleProfile
		Aud              string `json:"aud"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding tokeninfo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if payload.ErrorDescription != "" {
			return nil, fmt.Errorf("token rejected: %s", payload.ErrorDescription)
		}
		return nil, fmt.Errorf("token rejected with status %d", resp.StatusCode)
	}

	if payload.Sub == "" {
		return nil, fmt.Errorf("token is no longer available")
	}

	accepted := false
	for _, aud := range googleAudiences {
		if payload.Aud == aud {
			accepted = true
			break
		}
	}
	if !accepted {
		return nil, fmt.Errorf("token audience %q is not accepted", payload.Aud)
	}

	return &payload.GoogleProfile, nil
}

// Server-side OAuth redirect flow. Mobile and SPA clients use the ID-token
// path above; this flow serves browser logins.

var (
	stateStore = make(map[string]time.Time)
	stateMutex sync.Mutex
)

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func storeState(state string) {
	stateMutex.Lock()
	defer stateMutex.Unlock()
	stateStore[state] = time.Now().Add(5 * time.Minute)

	for k, v := range stateStore {
		if time.Now().After(v) {
			delete(stateStore, k)
		}
	}
}

func validateState(state string) bool {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	expiry, exists := stateStore[state]
	if !exists || time.Now().After(expiry) {
		return false
	}
	delete(stateStore, state)
	return true
}

func GoogleLoginHandler(c *fiber.Ctx) error {
	state, err := generateState()
	if err != nil {
		return response.InternalError(c, "Failed to generate state")
	}
	storeState(state)
	return c.Redirect(oauthConfig.AuthCodeURL(state))
}

func GoogleCallbackHandler(c *fiber.Ctx) error {
	if !validateState(c.Query("state")) {
		return response.BadRequest(c, "Invalid state parameter", nil)
	}

	token, err := oauthConfig.Exchange(c.Context(), c.Query("code"))
	if err != nil {
		return response.InternalError(c, "Failed to exchange token")
	}

	client := oauthConfig.Client(c.Context(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return response.InternalError(c, "Failed to get user info")
	}
	defer resp.Body.Close()

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return response.InternalError(c, "Failed to decode user info")
	}

	user, err := FindOrCreateGoogleUser(&profile, token.AccessToken)
	if err != nil {
		return response.InternalError(c, "Failed to resolve user")
	}

	signed, err := utils.GenerateToken(user.ID, user.Email, user.DisplayName)
	if err != nil {
		return response.InternalError(c, "Failed to generate token")
	}
	user.Token = signed

	return c.JSON(fiber.Map{"token": signed, "userData": user})
}

func newOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		RedirectURL:  redirectURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}
