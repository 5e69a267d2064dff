package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/config"
	"storefront/internal/state"
	"storefront/internal/usecase"
)

// Services are the orchestration entry points the surface exposes.
type Services struct {
	Baskets   *usecase.BasketService
	Checkout  *usecase.CheckoutService
	Stores    *usecase.StoreService
	Menu      *usecase.MenuService
	Members   *usecase.MemberService
	Addresses *usecase.AddressService
	State     *state.Store

	// Checks are dependency probes reported by /healthz.
	Checks map[string]func(context.Context) error
}

type Server struct {
	cfg    config.Config
	svc    Services
	logger *slog.Logger
	engine *gin.Engine
}

func New(cfg config.Config, svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.requestID(), s.accessLog())
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.GET("/state", s.handleState)
	api.GET("/state/stream", s.handleStateStream)

	stores := api.Group("/stores")
	stores.GET("", s.handleSearchStores)
	stores.POST("/:storeId/select", s.handleSelectStore)
	api.PUT("/fulfilment-method", s.handleSetFulfilmentMethod)

	menu := api.Group("/menu")
	menu.GET("/categories", s.handleMenuCategories)
	menu.GET("/search", s.handleMenuSearch)

	member := api.Group("/member")
	member.POST("/login", s.handleLogin)
	member.POST("/logout", s.handleLogout)
	member.GET("/profile", s.handleProfile)

	api.GET("/addresses", s.handleFindAddresses)

	basket := api.Group("/basket")
	basket.GET("", s.handleBasket)
	basket.POST("/restore", s.handleRestoreBasket)
	basket.POST("/new", s.handleNewBasket)
	basket.POST("/fulfilment", s.handleBasketFulfilment)
	basket.POST("/items", s.handleAddItem)
	basket.DELETE("/items", s.handleClearItems)
	basket.PUT("/items/:lineId", s.handleUpdateItem)
	basket.DELETE("/items/:lineId", s.handleRemoveItem)
	basket.POST("/coupon", s.handleApplyCoupon)
	basket.DELETE("/coupon", s.handleRemoveCoupon)
	basket.PUT("/contact", s.handleContactDetails)
	basket.PUT("/delivery-address", s.handleDeliveryAddress)
	basket.PUT("/billing-address", s.handleBillingAddress)
	basket.PUT("/tip", s.handleTip)
	basket.POST("/repeat/:orderId", s.handleRepeatOrder)
	basket.POST("/timeslot", s.handleReserveTimeSlot)

	checkout := api.Group("/checkout")
	checkout.POST("/draft", s.handleCreateDraft)
	checkout.GET("/hosted-page", s.handleHostedPageProducer)
	checkout.POST("/hosted-page", s.handleHostedPageConsumer)
	checkout.POST("/confirm", s.handleConfirmPayment)
	checkout.POST("/verify", s.handleVerifyPayment)
	checkout.POST("/pay", s.handleMakePayment)
	checkout.POST("/wallet", s.handleWallet)
	checkout.GET("/last-order", s.handleLastOrder)

	orders := api.Group("/orders")
	orders.GET("/:orderId/status", s.handleOrderStatus)
	orders.GET("/:orderId/driver", s.handleDriverLocation)
	api.GET("/tracking/last-delivery", s.handleLastDeliveryTracking)
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("Idempotency-Key")
		if id == "" {
			id = c.GetHeader("X-Request-ID")
		}
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestId", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http_request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"request_id", c.GetString("requestId"),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	status, code := "ok", http.StatusOK
	checks := gin.H{}
	for name, check := range s.svc.Checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(code, gin.H{"status": status, "env": s.cfg.Env, "checks": checks})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, snapshotView(s.svc.State.Snapshot()))
}

// handleStateStream pushes a snapshot event after every state publish until
// the client goes away.
func (s *Server) handleStateStream(c *gin.Context) {
	updates, cancel := s.svc.State.Subscribe()
	defer cancel()
	c.SSEvent("state", snapshotView(s.svc.State.Snapshot()))
	c.Writer.Flush()
	c.Stream(func(_ io.Writer) bool {
		select {
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("state", snapshotView(snap))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func snapshotView(snap state.Snapshot) gin.H {
	return gin.H{
		"selectedStore":      snap.SelectedStore,
		"fulfilmentMethod":   snap.FulfilmentMethod,
		"fulfilmentLocation": snap.FulfilmentLocation,
		"basket":             snap.Basket,
		"member":             snap.Member,
		"mentionMeOffer":     snap.MentionMeOffer,
	}
}

// fail renders err in the error envelope. Auth failures sign the member out
// before the response is written.
func (s *Server) fail(c *gin.Context, err error) {
	if s.svc.Members != nil {
		s.svc.Members.HandleAuthFailure(context.WithoutCancel(c.Request.Context()), err)
	}
	code, msg, status := usecase.Describe(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request_failed", "path", c.FullPath(), "code", code, "err", err)
	}
	body := gin.H{
		"code":      code,
		"message":   msg,
		"requestId": c.GetString("requestId"),
	}
	if pending, ok := asPending(err); ok {
		body["redirectUrl"] = pending.RedirectURL
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

func (s *Server) err(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   msg,
			"requestId": c.GetString("requestId"),
		},
	})
}

func (s *Server) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "invalid json body")
		return false
	}
	return true
}

func (s *Server) intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(c.Param(name)))
	if err != nil || n <= 0 {
		s.err(c, http.StatusBadRequest, "BadRequest", name+" must be a positive integer")
		return 0, false
	}
	return n, true
}
