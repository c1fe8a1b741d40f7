package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pontox/config"
	"pontox/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestPublishReachesOnlyTargetUser(t *testing.T) {
	h := NewHub()
	a1, a2, b := NewClient(1, "USER"), NewClient(1, "USER"), NewClient(2, "USER")
	h.Register(a1)
	h.Register(a2)
	h.Register(b)

	h.Publish(1, EventPointsUpdated, map[string]int64{"points": 150})

	for _, c := range []*Client{a1, a2} {
		select {
		case msg := <-c.Send:
			var ev Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				t.Fatal(err)
			}
			if ev.Type != EventPointsUpdated {
				t.Errorf("type = %q", ev.Type)
			}
		default:
			t.Error("client of user 1 got nothing")
		}
	}
	select {
	case <-b.Send:
		t.Error("user 2 received user 1's event")
	default:
	}
}

func TestCloseUnregisters(t *testing.T) {
	h := NewHub()
	c := NewClient(5, "USER")
	h.Register(c)
	c.Close()
	c.Close()
	if n := h.Connections(5); n != 0 {
		t.Errorf("connections = %d after close", n)
	}
	h.Publish(5, EventLevelUp, nil) // must not panic on the closed channel
}

func TestUpgradePointsWS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.JWTConfig{AccessSecret: "s", RefreshSecret: "r", AccessExpiry: time.Minute, Issuer: "t"}
	hub := NewHub()
	r := gin.New()
	r.GET("/ws/points", UpgradePointsWS(cfg, hub, func(_ *gin.Context, userID uint) (interface{}, error) {
		return map[string]uint{"user_id": userID}, nil
	}))
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/points?token=bogus")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token status = %d", resp.StatusCode)
	}

	token, _ := auth.GenerateAccessToken(cfg, 9, "u@example.com", "USER")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/points?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if ev.Type != EventPointsSnapshot {
		t.Errorf("first event = %q, want snapshot", ev.Type)
	}

	hub.Publish(9, EventPointsUpdated, map[string]int64{"points": 10})
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if ev.Type != EventPointsUpdated {
		t.Errorf("second event = %q", ev.Type)
	}
}
