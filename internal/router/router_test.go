package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pontox/config"
	"pontox/internal/catalog"
	"pontox/internal/database"
	"pontox/internal/ws"

	"github.com/gin-gonic/gin"
)

type apiEnv struct {
	t      *testing.T
	engine *gin.Engine
	svc    *Services
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		Server: config.ServerConfig{PublicURL: "https://pontox.example.com"},
		JWT: config.JWTConfig{
			AccessSecret:  "access",
			RefreshSecret: "refresh",
			AccessExpiry:  time.Minute,
			RefreshExpiry: time.Hour,
			Issuer:        "pontox-test",
		},
		Points: config.PointsConfig{CheckinRadiusMeters: 300},
	}
	store, closeFn, err := database.Open(ctx, &config.DatabaseConfig{Driver: database.DriverMemory})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = closeFn() })
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	hub := ws.NewHub()
	svc := NewServices(cfg, store, cat, nil, nil, hub)
	if err := svc.Auth.SeedAdmin(ctx, "admin@example.com", "admin-senha", "Admin"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Spots.SeedDefaults(ctx, cat.Spots); err != nil {
		t.Fatal(err)
	}
	return &apiEnv{t: t, engine: Setup(ctx, cfg, svc, hub), svc: svc}
}

func (e *apiEnv) do(method, path, token string, body interface{}, header map[string]string) (int, map[string]interface{}) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func (e *apiEnv) login(path, email, password string) string {
	e.t.Helper()
	code, out := e.do(http.MethodPost, path, "", gin.H{"email": email, "password": password}, nil)
	if code != http.StatusOK {
		e.t.Fatalf("login %s = %d %v", email, code, out)
	}
	return out["tokens"].(map[string]interface{})["access_token"].(string)
}

func TestLoyaltyFlow(t *testing.T) {
	e := newAPI(t)

	code, out := e.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "ana@example.com", "name": "Ana Souza", "password": "s3nha-segura",
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("register = %d %v", code, out)
	}
	user := out["user"].(map[string]interface{})
	if user["points"].(float64) != 100 || user["level"] != "Bronze" {
		t.Errorf("registered user = %v", user)
	}
	token := out["tokens"].(map[string]interface{})["access_token"].(string)

	code, out = e.do(http.MethodPost, "/api/v1/rewards/desconto-10/redeem", token, nil, nil)
	if code != http.StatusUnprocessableEntity || out["code"] != "insufficient_points" {
		t.Errorf("early redeem = %d %v", code, out)
	}

	_, out = e.do(http.MethodGet, "/api/v1/spots", "", nil, nil)
	spots := out["data"].([]interface{})
	if len(spots) == 0 {
		t.Fatal("no seeded spots")
	}
	spotID := uint(spots[0].(map[string]interface{})["id"].(float64))
	code, out = e.do(http.MethodPost, fmt.Sprintf("/api/v1/spots/%d/checkin", spotID), token, nil, nil)
	if code != http.StatusCreated {
		t.Fatalf("checkin = %d %v", code, out)
	}
	code, out = e.do(http.MethodPost, fmt.Sprintf("/api/v1/spots/%d/checkin", spotID), token, nil, nil)
	if code != http.StatusConflict || out["code"] != "already_checked_in" {
		t.Errorf("second checkin = %d %v", code, out)
	}

	idem := map[string]string{"Idempotency-Key": "resgate-1"}
	code, out = e.do(http.MethodPost, "/api/v1/rewards/desconto-10/redeem", token, nil, idem)
	if code != http.StatusCreated {
		t.Fatalf("redeem = %d %v", code, out)
	}
	redemption := out["redemption"].(map[string]interface{})
	voucher := redemption["code"].(string)
	balance := out["balance"].(float64)
	code, out = e.do(http.MethodPost, "/api/v1/rewards/desconto-10/redeem", token, nil, idem)
	if code != http.StatusOK || out["replayed"] != true || out["balance"].(float64) != balance {
		t.Errorf("replayed redeem = %d %v", code, out)
	}

	_, out = e.do(http.MethodGet, "/api/v1/me/redemptions", token, nil, nil)
	if n := len(out["data"].([]interface{})); n != 1 {
		t.Errorf("redemptions = %d, want 1", n)
	}
	_, out = e.do(http.MethodGet, "/api/v1/me/points/history", token, nil, nil)
	if out["total"].(float64) < 3 {
		t.Errorf("history = %v", out)
	}

	admin := e.login("/api/v1/admin/login", "admin@example.com", "admin-senha")
	code, out = e.do(http.MethodPost, "/api/v1/admin/redemptions/"+voucher+"/use", admin, nil, nil)
	if code != http.StatusOK || out["status"] != "used" {
		t.Errorf("use voucher = %d %v", code, out)
	}
	code, _ = e.do(http.MethodPost, "/api/v1/admin/redemptions/"+voucher+"/use", admin, nil, nil)
	if code != http.StatusConflict {
		t.Errorf("reuse voucher = %d", code)
	}
	code, out = e.do(http.MethodGet, "/api/v1/admin/dashboard", admin, nil, nil)
	if code != http.StatusOK || out["total_checkins"].(float64) != 1 {
		t.Errorf("dashboard = %d %v", code, out)
	}
}

func TestAccessControl(t *testing.T) {
	e := newAPI(t)
	e.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "ana@example.com", "name": "Ana", "password": "s3nha-segura"}, nil)
	user := e.login("/api/v1/auth/login", "ana@example.com", "s3nha-segura")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"public catalog", http.MethodGet, "/api/v1/rewards", "", http.StatusOK},
		{"me without token", http.MethodGet, "/api/v1/me", "", http.StatusUnauthorized},
		{"me", http.MethodGet, "/api/v1/me", user, http.StatusOK},
		{"admin as user", http.MethodGet, "/api/v1/admin/dashboard", user, http.StatusForbidden},
		{"admin login as user", http.MethodPost, "/api/v1/admin/login", "", http.StatusBadRequest},
		{"bad spot id", http.MethodGet, "/api/v1/spots/abc", "", http.StatusBadRequest},
		{"unknown spot", http.MethodGet, "/api/v1/spots/9999", "", http.StatusNotFound},
		{"bad timeframe", http.MethodGet, "/api/v1/leaderboard?timeframe=decade", "", http.StatusBadRequest},
		{"google unconfigured", http.MethodGet, "/api/v1/auth/google", "", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, out := e.do(tt.method, tt.path, tt.token, nil, nil); code != tt.want {
				t.Errorf("status = %d, want %d (%v)", code, tt.want, out)
			}
		})
	}
}

func TestReferralAndAdminAdjust(t *testing.T) {
	e := newAPI(t)
	_, out := e.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "ana@example.com", "name": "Ana Souza", "password": "s3nha-segura"}, nil)
	anaToken := out["tokens"].(map[string]interface{})["access_token"].(string)
	anaID := out["user"].(map[string]interface{})["id"].(float64)

	_, out = e.do(http.MethodGet, "/api/v1/me/referral-code", anaToken, nil, nil)
	refCode := out["code"].(string)
	code, out := e.do(http.MethodGet, "/api/v1/referral-codes/"+refCode, "", nil, nil)
	if code != http.StatusOK || out["referrer_name"] != "Ana Souza" {
		t.Errorf("validate = %d %v", code, out)
	}
	code, out = e.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "bruno@example.com", "name": "Bruno", "password": "s3nha-segura", "referral_code": "NAOEXISTE1",
	}, nil)
	if code != http.StatusNotFound || out["code"] != "referral_code_not_found" {
		t.Errorf("bad referral = %d %v", code, out)
	}
	code, _ = e.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "bruno@example.com", "name": "Bruno", "password": "s3nha-segura", "referral_code": refCode,
	}, nil)
	if code != http.StatusCreated {
		t.Fatalf("referred register = %d", code)
	}
	_, out = e.do(http.MethodGet, "/api/v1/me/referrals", anaToken, nil, nil)
	if out["total"].(float64) != 1 {
		t.Errorf("referrals = %v", out)
	}

	admin := e.login("/api/v1/admin/login", "admin@example.com", "admin-senha")
	path := fmt.Sprintf("/api/v1/admin/users/%d/points", uint(anaID))
	code, out = e.do(http.MethodPost, path, admin, gin.H{"points": -50, "description": "Correção"}, nil)
	if code != http.StatusOK || out["balance"].(float64) < 0 {
		t.Errorf("adjust = %d %v", code, out)
	}
	code, out = e.do(http.MethodPost, path, admin, gin.H{"points": 0}, nil)
	if code != http.StatusBadRequest || out["code"] != "zero_points" {
		t.Errorf("zero adjust = %d %v", code, out)
	}
	code, out = e.do(http.MethodGet, "/api/v1/admin/audit-logs", admin, nil, nil)
	if code != http.StatusOK || out["total"].(float64) != 1 {
		t.Errorf("audit logs = %d %v", code, out)
	}
	code, out = e.do(http.MethodPut, "/api/v1/admin/settings", admin, gin.H{"points.checkin": 80}, nil)
	if code != http.StatusOK || out["points.checkin"].(float64) != 80 {
		t.Errorf("settings = %d %v", code, out)
	}
}
