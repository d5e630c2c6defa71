package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/secondchances-backend/internal/auth"
	"github.com/shinyyama/secondchances-backend/internal/db/dbtest"
	appmw "github.com/shinyyama/secondchances-backend/internal/middleware"
	"github.com/shinyyama/secondchances-backend/internal/model"
	"github.com/shinyyama/secondchances-backend/internal/repository"
	"github.com/shinyyama/secondchances-backend/internal/storage"
)

// uidVerifier treats the bearer token as the uid.
type uidVerifier struct{}

func (uidVerifier) Verify(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.New("empty token")
	}
	return token, nil
}

type testServer struct {
	t *testing.T
	h http.Handler
}

func newTestServer(t *testing.T, uids ...string) *testServer {
	t.Helper()
	gdb := dbtest.Open(t)
	users := repository.NewUserRepository(gdb)
	for _, uid := range uids {
		if err := users.Upsert(context.Background(), &model.UserProfile{UID: uid, DisplayName: "User " + uid}); err != nil {
			t.Fatalf("seed user %s: %v", uid, err)
		}
	}
	srv := New(NewServices(gdb, storage.Disabled{}, nil, 1), Options{
		Verifier:  uidVerifier{},
		GitSHA:    "abc123",
		BuildTime: "2026-01-01T00:00:00Z",
	})
	return &testServer{t: t, h: srv.Handler()}
}

func (s *testServer) do(method, path, uid string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if uid != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+uid)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
	var got map[string]string
	decode(t, rec, &got)
	if got["git_sha"] != "abc123" || got["ok"] != "true" {
		t.Fatalf("body=%v", got)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatal("missing request id header")
	}
}

func TestConversationEndpoints(t *testing.T) {
	s := newTestServer(t, "alice", "bob", "carol")

	if rec := s.do(http.MethodGet, "/api/conversations", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list code=%d", rec.Code)
	}

	rec := s.do(http.MethodPost, "/api/conversations/bob/messages", "alice", map[string]string{"content": "  is the bread box left?  "})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create message code=%d body=%s", rec.Code, rec.Body.String())
	}
	var msg struct {
		ConversationID uint64 `json:"conversationId"`
		Body           string `json:"body"`
		Author         struct {
			DisplayName string `json:"displayName"`
		} `json:"author"`
	}
	decode(t, rec, &msg)
	if msg.Body != "is the bread box left?" || msg.Author.DisplayName != "User alice" {
		t.Fatalf("message=%+v", msg)
	}
	convPath := fmt.Sprintf("/api/conversations/%d", msg.ConversationID)

	var unread map[string]int64
	decode(t, s.do(http.MethodGet, "/api/conversations/unread", "bob", nil), &unread)
	if unread["unread"] != 1 {
		t.Fatalf("bob unread=%v", unread)
	}

	var sellerList []struct {
		ConversationID uint64 `json:"conversationId"`
		Role           string `json:"role"`
		Unread         int    `json:"unread"`
	}
	decode(t, s.do(http.MethodGet, "/api/conversations?role=seller", "bob", nil), &sellerList)
	if len(sellerList) != 1 || sellerList[0].Unread != 1 || sellerList[0].Role != "seller" {
		t.Fatalf("seller list=%+v", sellerList)
	}
	if rec := s.do(http.MethodGet, "/api/conversations?role=admin", "bob", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role code=%d", rec.Code)
	}

	rec = s.do(http.MethodGet, convPath+"/messages", "bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("thread code=%d", rec.Code)
	}
	var thread struct {
		Role     string `json:"role"`
		Messages []struct {
			Body string `json:"body"`
		} `json:"messages"`
	}
	decode(t, rec, &thread)
	if thread.Role != "seller" || len(thread.Messages) != 1 {
		t.Fatalf("thread=%+v", thread)
	}
	decode(t, s.do(http.MethodGet, "/api/conversations/unread", "bob", nil), &unread)
	if unread["unread"] != 0 {
		t.Fatalf("bob unread after read=%v", unread)
	}

	tests := []struct {
		name     string
		method   string
		path     string
		uid      string
		body     interface{}
		wantCode int
	}{
		{"outsider reads thread", http.MethodGet, convPath + "/messages", "carol", nil, http.StatusForbidden},
		{"outsider gets summary", http.MethodGet, convPath, "carol", nil, http.StatusForbidden},
		{"unknown counterpart", http.MethodGet, "/api/conversations/nobody/messages", "alice", nil, http.StatusNotFound},
		{"self conversation", http.MethodPost, "/api/conversations/alice/messages", "alice", map[string]string{"content": "hi"}, http.StatusBadRequest},
		{"blank content", http.MethodPost, convPath + "/messages", "alice", map[string]string{"content": "   "}, http.StatusBadRequest},
		{"bad id", http.MethodDelete, "/api/conversations/abc", "alice", nil, http.StatusBadRequest},
		{"participant summary", http.MethodGet, convPath, "alice", nil, http.StatusOK},
		{"outsider delete", http.MethodDelete, convPath, "carol", nil, http.StatusForbidden},
		{"participant delete", http.MethodDelete, convPath, "alice", nil, http.StatusOK},
		{"deleted summary", http.MethodGet, convPath, "alice", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.uid, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("code=%d want %d body=%s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestCheckoutAndPickupEndpoints(t *testing.T) {
	s := newTestServer(t, "seller", "buyer")
	start := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	rec := s.do(http.MethodPost, "/api/boxes", "seller", map[string]interface{}{
		"title":            "Pastry box",
		"description":      "Assorted pastries",
		"category":         "bakery",
		"priceYen":         400,
		"originalPriceYen": 1200,
		"quantity":         2,
		"pickupStartsAt":   start.Format(time.RFC3339),
		"pickupEndsAt":     start.Add(2 * time.Hour).Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create box code=%d body=%s", rec.Code, rec.Body.String())
	}
	var box struct {
		ID uint64 `json:"id"`
	}
	decode(t, rec, &box)

	if rec := s.do(http.MethodGet, "/api/boxes", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("public list code=%d", rec.Code)
	}
	if rec := s.do(http.MethodPost, fmt.Sprintf("/api/boxes/%d/orders", box.ID), "seller", map[string]int{"quantity": 1}); rec.Code != http.StatusBadRequest {
		t.Fatalf("self checkout code=%d", rec.Code)
	}

	rec = s.do(http.MethodPost, fmt.Sprintf("/api/boxes/%d/orders", box.ID), "buyer", map[string]int{"quantity": 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout code=%d body=%s", rec.Code, rec.Body.String())
	}
	var order struct {
		ID             uint64 `json:"id"`
		Status         string `json:"status"`
		PaidYen        int64  `json:"paidYen"`
		PickupCode     string `json:"pickupCode"`
		ConversationID uint64 `json:"conversationId"`
	}
	decode(t, rec, &order)
	if order.Status != "pending_pickup" || order.PaidYen != 400 || order.PickupCode == "" || order.ConversationID == 0 {
		t.Fatalf("order=%+v", order)
	}
	orderPath := fmt.Sprintf("/api/orders/%d", order.ID)

	rec = s.do(http.MethodGet, orderPath, "seller", nil)
	var sellerView struct {
		PickupCode string `json:"pickupCode"`
	}
	decode(t, rec, &sellerView)
	if sellerView.PickupCode != "" {
		t.Fatal("seller must not see the pickup code")
	}

	rec = s.do(http.MethodGet, orderPath+"/pickup.png", "buyer", nil)
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "image/png" {
		t.Fatalf("qr code=%d type=%s", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}
	if rec := s.do(http.MethodGet, orderPath+"/pickup.png", "seller", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("seller qr code=%d", rec.Code)
	}

	var unread map[string]int64
	decode(t, s.do(http.MethodGet, "/api/conversations/unread", "seller", nil), &unread)
	if unread["unread"] != 1 {
		t.Fatalf("seller unread=%v", unread)
	}

	if rec := s.do(http.MethodPost, orderPath+"/pickup", "seller", map[string]string{"code": "WRONG1"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong code status=%d", rec.Code)
	}
	if rec := s.do(http.MethodPost, orderPath+"/pickup", "seller", map[string]string{"code": order.PickupCode}); rec.Code != http.StatusOK {
		t.Fatalf("pickup status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodPost, orderPath+"/cancel", "buyer", nil); rec.Code != http.StatusConflict {
		t.Fatalf("cancel after pickup status=%d", rec.Code)
	}
	if rec := s.do(http.MethodPost, orderPath+"/rating", "buyer", map[string]interface{}{"score": 5, "comment": "great"}); rec.Code != http.StatusCreated {
		t.Fatalf("rating status=%d body=%s", rec.Code, rec.Body.String())
	}

	var points struct {
		Balance int64 `json:"balance"`
	}
	decode(t, s.do(http.MethodGet, "/api/me/points", "buyer", nil), &points)
	if points.Balance != 4 {
		t.Fatalf("points=%+v", points)
	}
	var revenue map[string]int64
	decode(t, s.do(http.MethodGet, "/api/me/revenue", "seller", nil), &revenue)
	if revenue["revenueYen"] != 400 {
		t.Fatalf("revenue=%v", revenue)
	}

	rec = s.do(http.MethodGet, "/api/me/sales/export.xlsx", "seller", nil)
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("export code=%d type=%s", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}

	var notes struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	decode(t, s.do(http.MethodGet, "/api/me/notifications", "buyer", nil), &notes)
	if notes.UnreadCount == 0 {
		t.Fatal("buyer should have a pickup notification")
	}
	var marked map[string]int64
	decode(t, s.do(http.MethodPost, "/api/me/notifications/read", "buyer", nil), &marked)
	if marked["marked"] != notes.UnreadCount {
		t.Fatalf("marked=%v want %d", marked, notes.UnreadCount)
	}

	if rec := s.do(http.MethodPost, fmt.Sprintf("/api/boxes/%d/image", box.ID), "seller", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("image without file status=%d", rec.Code)
	}
}

func TestPasswordAccounts(t *testing.T) {
	gdb := dbtest.Open(t)
	tokens := auth.NewJWTService("0123456789abcdef0123", time.Hour)
	srv := New(NewServices(gdb, storage.Disabled{}, tokens, 1), Options{Verifier: appmw.NewJWTVerifier(tokens)})
	s := &testServer{t: t, h: srv.Handler()}

	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "Hana@Example.com", "password": "correct horse", "displayName": "Hana",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register code=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "hana@example.com", "password": "another one", "displayName": "Copy",
	}); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register code=%d", rec.Code)
	}
	if rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "hana@example.com", "password": "wrong password",
	}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login code=%d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "hana@example.com", "password": "correct horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login code=%d body=%s", rec.Code, rec.Body.String())
	}
	var sess struct {
		Token string `json:"token"`
		User  struct {
			UID string `json:"uid"`
		} `json:"user"`
	}
	decode(t, rec, &sess)

	rec = s.do(http.MethodGet, "/api/me", sess.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me code=%d", rec.Code)
	}
	var me struct {
		UID         string `json:"uid"`
		DisplayName string `json:"displayName"`
	}
	decode(t, rec, &me)
	if me.UID != sess.User.UID || me.DisplayName != "Hana" {
		t.Fatalf("me=%+v", me)
	}
	if rec := s.do(http.MethodPost, "/api/me/avatar", sess.Token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("avatar without file code=%d", rec.Code)
	}
}

func TestOriginAllowed(t *testing.T) {
	allow := originAllowed([]string{"https://app.example.com/", " https://admin.example.com"})
	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.example.com", true},
		{"https://ADMIN.example.com", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:3000", true},
		{"https://evil.example.com", false},
		{"ftp://localhost", false},
	}
	for _, tt := range tests {
		if got, _ := allow(tt.origin); got != tt.want {
			t.Errorf("originAllowed(%q)=%v want %v", tt.origin, got, tt.want)
		}
	}
}

func TestErrorBodyCarriesCode(t *testing.T) {
	s := newTestServer(t, "alice", "bob", "carol")

	rec := s.do(http.MethodPost, "/api/conversations/bob/messages", "alice", map[string]string{"content": "hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create message code=%d body=%s", rec.Code, rec.Body.String())
	}
	var msg struct {
		ConversationID uint64 `json:"conversationId"`
	}
	decode(t, rec, &msg)
	convPath := fmt.Sprintf("/api/conversations/%d/messages", msg.ConversationID)

	tests := []struct {
		name     string
		method   string
		path     string
		uid      string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{"forbidden", http.MethodGet, convPath, "carol", nil, http.StatusForbidden, "forbidden"},
		{"not found", http.MethodGet, "/api/conversations/nobody/messages", "alice", nil, http.StatusNotFound, "not_found"},
		{"validation", http.MethodPost, convPath, "alice", map[string]string{"content": " "}, http.StatusBadRequest, "bad_request"},
		{"anonymous", http.MethodGet, "/api/conversations", "", nil, http.StatusUnauthorized, "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(tt.method, tt.path, tt.uid, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("code=%d want %d body=%s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			decode(t, rec, &body)
			if body.Error.Code != tt.wantErr || body.Error.Message == "" {
				t.Fatalf("error body=%s", rec.Body.String())
			}
		})
	}
}
