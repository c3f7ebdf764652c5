package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/farellandr/ticketmart/config"
	"github.com/farellandr/ticketmart/internal/handlers"
	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/middleware"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/farellandr/ticketmart/internal/telemetry"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Event    *handlers.EventHandler
	Ticket   *handlers.TicketHandler
	Cart     *handlers.CartHandler
	Payment  *handlers.PaymentHandler
	Purchase *handlers.PurchaseHandler
	Profile  *handlers.ProfileHandler
}

type Options struct {
	Logger      *zap.Logger
	Tokens      middleware.TokenParser
	CORSOrigins []string
	UploadDir   string
	Version     string

	// Redis enables idempotent payment processing when set.
	Redis          middleware.RedisClient
	IdempotencyTTL time.Duration

	// Ready reports whether backing services are reachable.
	Ready func(ctx context.Context) error
}

// NewRouter builds the gin engine with every API route mounted under /api.
func NewRouter(h Handlers, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(telemetry.TracingMiddleware())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))

	r.GET("/health", health(opts))
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}
	r.NoRoute(func(c *gin.Context) {
		helpers.RespondWithError(c, http.StatusNotFound, "Route not found")
	})

	auth := middleware.JWTAuthMiddleware(opts.Tokens)
	organizer := middleware.Authorize(models.RoleOrganizer, models.RoleAdmin)
	admin := middleware.Authorize(models.RoleAdmin)

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.GET("/me", auth, h.Auth.Me)
	}

	api.GET("/categories", handlers.ListCategories)

	events := api.Group("/events")
	{
		events.GET("", h.Event.ListEvents)
		events.GET("/search", h.Event.SearchEvents)
		events.GET("/category/:category", h.Event.EventsByCategory)
		events.GET("/organizer", auth, organizer, h.Event.OrganizerEvents)
		events.GET("/:id", h.Event.GetEvent)
		events.POST("", auth, organizer, h.Event.CreateEvent)
		events.PUT("/:id", auth, organizer, h.Event.UpdateEvent)
		events.DELETE("/:id", auth, organizer, h.Event.DeleteEvent)
		events.POST("/:id/image", auth, organizer, h.Event.UploadImage)
	}

	tickets := api.Group("/tickets")
	{
		tickets.GET("", auth, admin, h.Ticket.ListTickets)
		tickets.GET("/event/:eventId", h.Ticket.TicketsByEvent)
		tickets.GET("/user", auth, h.Ticket.UserTickets)
		tickets.GET("/:id", auth, h.Ticket.GetTicket)
		tickets.POST("", auth, organizer, h.Ticket.CreateTicket)
		tickets.PUT("/:id", auth, organizer, h.Ticket.UpdateTicket)
		tickets.DELETE("/:id", auth, organizer, h.Ticket.DeleteTicket)
	}

	cart := api.Group("/cart", auth)
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("", h.Cart.AddItem)
		cart.DELETE("", h.Cart.ClearCart)
		cart.PUT("/:ticketId", h.Cart.UpdateItem)
		cart.DELETE("/:ticketId", h.Cart.RemoveItem)
	}

	payments := api.Group("/payments", auth)
	{
		payments.POST("/create-payment-intent", h.Payment.CreatePaymentIntent)
		if opts.Redis != nil {
			payments.POST("/process", middleware.Idempotency(opts.Redis, opts.IdempotencyTTL, log), h.Payment.ProcessPayment)
		} else {
			payments.POST("/process", h.Payment.ProcessPayment)
		}
		payments.GET("/user", h.Payment.UserOrders)
		payments.GET("/organizer", organizer, h.Payment.OrganizerOrders)
		payments.POST("/verify-pass", organizer, h.Purchase.VerifyPass)
		payments.GET("/:id", h.Payment.GetOrder)
		payments.GET("/:id/pass", h.Purchase.PassQR)
		payments.PATCH("/:id/status", admin, h.Payment.UpdateOrderStatus)
	}

	users := api.Group("/users", auth)
	{
		users.GET("/profile", h.Profile.GetProfile)
		users.PUT("/profile", h.Profile.UpdateProfile)
		users.GET("", admin, h.Profile.ListUsers)
		users.GET("/:id", admin, h.Profile.GetUser)
		users.PUT("/:id", admin, h.Profile.UpdateUser)
		users.DELETE("/:id", admin, h.Profile.DeleteUser)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader, middleware.IdempotencyKeyHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func health(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": opts.Version})
	}
}

type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
	log             *zap.Logger
}

func New(cfg config.ServerConfig, handler http.Handler, log *zap.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             log,
	}
}

// Run serves until ctx is cancelled and then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server exited gracefully")
	return nil
}
