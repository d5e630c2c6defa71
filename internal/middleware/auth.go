package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/secondchances-backend/internal/auth"
	"github.com/shinyyama/secondchances-backend/internal/reqctx"
	"google.golang.org/api/option"
)

// Verifier turns a bearer token into the caller's uid.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// ProfileSyncer creates a local profile for identities seen for the first time.
type ProfileSyncer interface {
	SyncIdentity(ctx context.Context, uid, name, picture, email string) error
}

type FirebaseVerifier struct {
	authClient *fbauth.Client
	profiles   ProfileSyncer
}

func NewFirebaseVerifier(ctx context.Context, projectID string, profiles ProfileSyncer, opts ...option.ClientOption) (*FirebaseVerifier, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseVerifier{authClient: client, profiles: profiles}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, tokenStr string) (string, error) {
	token, err := v.authClient.VerifyIDToken(ctx, tokenStr)
	if err != nil {
		return "", err
	}
	if v.profiles != nil {
		name, _ := token.Claims["name"].(string)
		picture, _ := token.Claims["picture"].(string)
		email, _ := token.Claims["email"].(string)
		if err := v.profiles.SyncIdentity(ctx, token.UID, name, picture, email); err != nil {
			log.Printf("[auth] rid=%s uid=%s stage=profile_sync err=%v", reqctx.RID(ctx), token.UID, err)
		}
	}
	return token.UID, nil
}

type JWTVerifier struct {
	jwt *auth.JWTService
}

func NewJWTVerifier(jwt *auth.JWTService) *JWTVerifier {
	return &JWTVerifier{jwt: jwt}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (string, error) {
	return v.jwt.ExtractUID(token)
}

type AuthMiddleware struct {
	verifier Verifier
}

func NewAuthMiddleware(verifier Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func unauthorized(c echo.Context, code string) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"error": map[string]string{"code": code, "message": "authentication required"},
	})
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get(echo.HeaderAuthorization)
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return unauthorized(c, "unauthorized")
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		req := c.Request()
		uid, err := m.verifier.Verify(req.Context(), tokenStr)
		if err != nil || uid == "" {
			return unauthorized(c, "invalid_token")
		}
		c.Set("uid", uid)
		c.SetRequest(req.WithContext(reqctx.WithUID(req.Context(), uid)))
		return next(c)
	}
}
