package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/secondchances-backend/internal/auth"
	"github.com/shinyyama/secondchances-backend/internal/handler"
	appmw "github.com/shinyyama/secondchances-backend/internal/middleware"
	"github.com/shinyyama/secondchances-backend/internal/repository"
	"github.com/shinyyama/secondchances-backend/internal/service"
	"gorm.io/gorm"
)

// Services holds every application service built on one database handle.
type Services struct {
	Users         service.UserService
	Accounts      service.AccountService
	Conversations service.ConversationService
	Notifications service.NotificationService
	Boxes         service.BoxService
	Orders        service.OrderService
	Points        service.PointsService
	Revenue       service.RevenueService
	Ratings       service.RatingService
}

// NewServices wires repositories and services. tokens may be nil, in which
// case password accounts are unavailable.
func NewServices(db *gorm.DB, images service.ImageStore, tokens *auth.JWTService, pointsPer100Yen int64) *Services {
	userRepo := repository.NewUserRepository(db)
	convRepo := repository.NewConversationRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	boxRepo := repository.NewBoxRepository(db)
	pointsRepo := repository.NewPointsRepository(db)

	notifications := service.NewNotificationService(repository.NewNotificationRepository(db))
	conversations := service.NewConversationService(convRepo, userRepo, notifications)

	s := &Services{
		Users:         service.NewUserService(userRepo, ratingRepo, images),
		Conversations: conversations,
		Notifications: notifications,
		Boxes:         service.NewBoxService(boxRepo, images),
		Orders: service.NewOrderService(orderRepo, boxRepo, pointsRepo, conversations, notifications,
			service.StubGateway{}, pointsPer100Yen),
		Points:  service.NewPointsService(pointsRepo),
		Revenue: service.NewRevenueService(repository.NewUserRevenueRepository(db)),
		Ratings: service.NewRatingService(ratingRepo, orderRepo),
	}
	if tokens != nil {
		s.Accounts = service.NewAccountService(userRepo, tokens)
	}
	return s
}

type Options struct {
	Verifier       appmw.Verifier
	AllowedOrigins []string
	GitSHA         string
	BuildTime      string
}

type Server struct {
	e *echo.Echo
}

func New(svcs *Services, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestContext)
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", echo.HeaderXRequestID},
		ExposeHeaders:    []string{echo.HeaderXRequestID, echo.HeaderContentDisposition},
		AllowCredentials: true,
		AllowOriginFunc:  originAllowed(opts.AllowedOrigins),
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    opts.GitSHA,
			"build_time": opts.BuildTime,
		})
	})

	userHandler := handler.NewUserHandler(svcs.Users)
	boxHandler := handler.NewBoxHandler(svcs.Boxes)
	orderHandler := handler.NewOrderHandler(svcs.Orders, svcs.Ratings)
	pointsHandler := handler.NewPointsHandler(svcs.Points)
	revenueHandler := handler.NewRevenueHandler(svcs.Revenue)
	notifHandler := handler.NewNotificationHandler(svcs.Notifications)
	convHandler := handler.NewConversationHandler(svcs.Conversations)

	api := e.Group("/api")
	if svcs.Accounts != nil {
		authHandler := handler.NewAuthHandler(svcs.Accounts)
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
	}
	api.GET("/boxes", boxHandler.List)
	api.GET("/boxes/:id", boxHandler.Get)
	api.GET("/users/:uid/public", userHandler.GetPublic)
	api.GET("/rewards/tiers", pointsHandler.Tiers)

	authMw := appmw.NewAuthMiddleware(opts.Verifier)
	priv := api.Group("", authMw.RequireAuth)

	priv.GET("/me", userHandler.Me)
	priv.PATCH("/me", userHandler.UpdateMe)
	priv.POST("/me/avatar", userHandler.UploadAvatar)
	priv.GET("/me/boxes", boxHandler.ListMine)
	priv.GET("/me/orders", orderHandler.ListMine)
	priv.GET("/me/sales", orderHandler.ListSales)
	priv.GET("/me/sales/export.xlsx", orderHandler.ExportSales)
	priv.GET("/me/points", pointsHandler.Get)
	priv.GET("/me/rewards", pointsHandler.ListRewards)
	priv.POST("/me/rewards", pointsHandler.Redeem)
	priv.GET("/me/revenue", revenueHandler.Get)
	priv.GET("/me/notifications", notifHandler.List)
	priv.POST("/me/notifications/read", notifHandler.MarkAllRead)

	priv.POST("/boxes", boxHandler.Create)
	priv.PUT("/boxes/:id", boxHandler.Update)
	priv.POST("/boxes/:id/image", boxHandler.UploadImage)
	priv.POST("/boxes/:id/orders", orderHandler.Checkout)

	priv.GET("/orders/:id", orderHandler.Get)
	priv.GET("/orders/:id/pickup.png", orderHandler.PickupQR)
	priv.POST("/orders/:id/pickup", orderHandler.ConfirmPickup)
	priv.POST("/orders/:id/cancel", orderHandler.Cancel)
	priv.POST("/orders/:id/rating", orderHandler.Rate)

	priv.GET("/conversations", convHandler.List)
	priv.GET("/conversations/unread", convHandler.Unread)
	priv.GET("/conversations/:id", convHandler.Get)
	priv.GET("/conversations/:id/messages", convHandler.ListMessages)
	priv.POST("/conversations/:id/messages", convHandler.CreateMessage)
	priv.DELETE("/conversations/:id", convHandler.Delete)

	return &Server{e: e}
}

// originAllowed accepts the configured origins plus local development hosts.
func originAllowed(allowed []string) func(string) (bool, error) {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")
		if o != "" {
			set[o] = struct{}{}
		}
	}
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if _, ok := set[low]; ok {
			return true, nil
		}
		u, err := url.Parse(low)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		host := u.Hostname()
		return host == "localhost" || host == "127.0.0.1", nil
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
