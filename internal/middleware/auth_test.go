package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/secondchances-backend/internal/auth"
	"github.com/shinyyama/secondchances-backend/internal/reqctx"
)

type staticVerifier map[string]string

func (v staticVerifier) Verify(_ context.Context, token string) (string, error) {
	if uid, ok := v[token]; ok {
		return uid, nil
	}
	return "", errors.New("bad token")
}

func TestRequireAuth(t *testing.T) {
	e := echo.New()
	mw := NewAuthMiddleware(staticVerifier{"good": "alice"})
	h := mw.RequireAuth(func(c echo.Context) error {
		uid, _ := c.Get("uid").(string)
		return c.String(http.StatusOK, uid+"|"+reqctx.UID(c.Request().Context()))
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"good token", "Bearer good", http.StatusOK, "alice|alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			if err := h(e.NewContext(req, rec)); err != nil {
				t.Fatalf("handler err=%v", err)
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("code=%d want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Fatalf("body=%q", rec.Body.String())
			}
		})
	}
}

func TestJWTVerifier(t *testing.T) {
	jwt := auth.NewJWTService("0123456789abcdef0123", time.Hour)
	token, _, err := jwt.GenerateToken("bob")
	if err != nil {
		t.Fatal(err)
	}
	uid, err := NewJWTVerifier(jwt).Verify(context.Background(), token)
	if err != nil || uid != "bob" {
		t.Fatalf("uid=%q err=%v", uid, err)
	}
}

func TestRequestContext(t *testing.T) {
	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(RequestContext)
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, reqctx.RID(c.Request().Context()))
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Body.String() != "rid-123" {
		t.Fatalf("rid=%q", rec.Body.String())
	}
}
