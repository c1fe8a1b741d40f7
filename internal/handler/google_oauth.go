package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pontox/config"
	"pontox/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v2/userinfo"
	googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	oauthStateCookie   = "pontox_oauth_state"
)

type GoogleOAuthHandler struct {
	cfg     *config.Config
	authSvc *service.AuthService
	client  *http.Client
	// TokenInfoURL is overridable for tests.
	TokenInfoURL string
}

func NewGoogleOAuthHandler(cfg *config.Config, authSvc *service.AuthService) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		cfg:          cfg,
		authSvc:      authSvc,
		client:       &http.Client{Timeout: 10 * time.Second},
		TokenInfoURL: googleTokenInfoURL,
	}
}

func (h *GoogleOAuthHandler) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.cfg.OAuth.GoogleClientID,
		ClientSecret: h.cfg.OAuth.GoogleClientSecret,
		RedirectURL:  h.cfg.OAuth.GoogleRedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

func (h *GoogleOAuthHandler) configured(c *gin.Context) bool {
	if h.cfg.OAuth.GoogleClientID == "" {
		respondError(c, service.ErrGoogleNotConfigured)
		return false
	}
	return true
}

// Redirect sends the user to the Google consent screen. A referral code passed as ?ref=
// rides along in the state cookie so the callback can apply it to a new account.
func (h *GoogleOAuthHandler) Redirect(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	state := uuid.NewString()
	if ref := c.Query("ref"); ref != "" {
		state += "|" + ref
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, url.QueryEscape(state), 600, "/", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusFound, h.OAuth2Config().AuthCodeURL(state, oauth2.AccessTypeOnline))
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Callback exchanges the code for tokens, fetches the Google profile and signs the user in.
func (h *GoogleOAuthHandler) Callback(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	raw, err := c.Cookie(oauthStateCookie)
	state, _ := url.QueryUnescape(raw)
	if err != nil || state == "" || state != c.Query("state") {
		badRequest(c, "state inválido")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", c.Request.TLS != nil, true)
	code := c.Query("code")
	if code == "" {
		badRequest(c, "código ausente")
		return
	}
	ctx := c.Request.Context()
	conf := h.OAuth2Config()
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		respondError(c, service.ErrInvalidToken)
		return
	}
	var info googleUserInfo
	if err := getJSON(ctx, conf.Client(ctx, tok), googleUserInfoURL, &info); err != nil {
		respondError(c, fmt.Errorf("google userinfo: %w", err))
		return
	}
	var ref string
	if _, after, ok := strings.Cut(state, "|"); ok {
		ref = after
	}
	res, err := h.authSvc.LoginWithGoogle(ctx, service.GoogleProfile{ID: info.ID, Email: info.Email, Name: info.Name, AvatarURL: info.Picture}, ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// tokeninfoResponse is the response from https://oauth2.googleapis.com/tokeninfo?id_token=...
type tokeninfoResponse struct {
	Sub     string `json:"sub"` // Google ID
	Aud     string `json:"aud"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Token accepts an ID token from the mobile google_sign_in flow and returns our tokens.
// referral_code only applies when the account is created by this call.
func (h *GoogleOAuthHandler) Token(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	var req struct {
		IDToken      string `json:"id_token" binding:"required"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "id_token obrigatório")
		return
	}
	ctx := c.Request.Context()
	var info tokeninfoResponse
	err := getJSON(ctx, h.client, h.TokenInfoURL+"?id_token="+url.QueryEscape(req.IDToken), &info)
	if err != nil || info.Sub == "" || info.Email == "" || info.Aud != h.cfg.OAuth.GoogleClientID {
		respondError(c, service.ErrInvalidToken)
		return
	}
	res, err := h.authSvc.LoginWithGoogle(ctx, service.GoogleProfile{ID: info.Sub, Email: info.Email, Name: info.Name, AvatarURL: info.Picture}, req.ReferralCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

var errUpstream = errors.New("unexpected upstream status")

func getJSON(ctx context.Context, client *http.Client, rawURL string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", errUpstream, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
