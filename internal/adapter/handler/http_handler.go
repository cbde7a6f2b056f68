package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/nextbyte/storefront/internal/core/domain"
	"github.com/nextbyte/storefront/internal/core/service"
	"github.com/nextbyte/storefront/internal/metrics"
	"github.com/nextbyte/storefront/internal/port"
)

type HTTPHandler struct {
	sessions  *service.SessionManager
	orders    *service.OrderService
	catalog   port.CatalogClient
	auth      port.AuthClient
	jwtSecret []byte
}

func NewHTTPHandler(sessions *service.SessionManager, orders *service.OrderService, catalog port.CatalogClient, auth port.AuthClient, jwtSecret string) *HTTPHandler {
	return &HTTPHandler{
		sessions:  sessions,
		orders:    orders,
		catalog:   catalog,
		auth:      auth,
		jwtSecret: []byte(jwtSecret),
	}
}

// Router builds the gin engine with all storefront routes mounted.
func (h *HTTPHandler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.PrometheusMiddleware("storefront"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/products", h.listProducts)
		api.POST("/auth/login", h.login)

		cart := api.Group("/cart/:session")
		{
			cart.GET("", h.getCart)
			cart.DELETE("", h.clearCart)
			cart.POST("/items", h.addItem)
			cart.PUT("/items/:itemId", h.updateQuantity)
			cart.DELETE("/items/:itemId", h.removeItem)
			cart.POST("/discount", h.applyDiscount)
			cart.POST("/checkout", h.checkout)
		}

		api.GET("/orders", h.listOrders)

		admin := api.Group("/admin", h.requireActor())
		{
			admin.GET("/orders", h.listAllOrders)
			admin.PUT("/orders/:orderId/status", h.updateOrderStatus)
		}
	}

	return router
}

func (h *HTTPHandler) listProducts(c *gin.Context) {
	products, err := h.catalog.FetchProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *HTTPHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	userID, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, port.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user_id": userID})
}

type addItemRequest struct {
	Product domain.CartProduct `json:"product" binding:"required"`
}

func (h *HTTPHandler) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Product.ID == "" || req.Product.UnitPrice.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id and a non-negative unit price are required"})
		return
	}

	sess := h.sessions.Session(c.Request.Context(), c.Param("session"))
	sess.Cart.AddItem(req.Product)
	h.sessions.Persist(c.Request.Context(), sess.ID)

	c.JSON(http.StatusOK, gin.H{"cart": sess.Cart.Snapshot()})
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *HTTPHandler) updateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	sess := h.sessions.Session(c.Request.Context(), c.Param("session"))
	sess.Cart.UpdateQuantity(c.Param("itemId"), req.Quantity)
	h.sessions.Persist(c.Request.Context(), sess.ID)

	c.JSON(http.StatusOK, gin.H{"cart": sess.Cart.Snapshot()})
}

func (h *HTTPHandler) removeItem(c *gin.Context) {
	sess := h.sessions.Session(c.Request.Context(), c.Param("session"))
	sess.Cart.RemoveItem(c.Param("itemId"))
	h.sessions.Persist(c.Request.Context(), sess.ID)

	c.JSON(http.StatusOK, gin.H{"cart": sess.Cart.Snapshot()})
}

func (h *HTTPHandler) getCart(c *gin.Context) {
	sess := h.sessions.Session(c.Request.Context(), c.Param("session"))
	c.JSON(http.StatusOK, gin.H{"cart": sess.Cart.Snapshot()})
}

func (h *HTTPHandler) clearCart(c *gin.Context) {
	sess := h.sessions.Session(c.Request.Context(), c.Param("session"))
	h.sessions.ClearCart(c.Request.Context(), sess.ID)
	c.JSON(http.StatusOK, gin.H{"cart": sess.Cart.Snapshot()})
}

type discountRequest struct {
	Code string `json:"code" binding:"required"`
}

func (h *HTTPHandler) applyDiscount(c *gin.Context) {
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	sess := h.sessions.Session(c.Request.Context(), c.Param("session"))
	applied := sess.Cart.ApplyDiscount(req.Code)
	h.sessions.Persist(c.Request.Context(), sess.ID)

	if applied {
		metrics.DiscountApplications.WithLabelValues("applied").Inc()
	} else {
		metrics.DiscountApplications.WithLabelValues("rejected").Inc()
	}

	c.JSON(http.StatusOK, gin.H{"applied": applied, "cart": sess.Cart.Snapshot()})
}

type checkoutRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	UserID    string `json:"user_id" binding:"required"`
}

func (h *HTTPHandler) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ctx := c.Request.Context()

	fresh, err := h.sessions.Idempotency(ctx, req.RequestID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "idempotency check failed"})
		return
	}
	if !fresh {
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate request"})
		return
	}

	sess := h.sessions.Session(ctx, c.Param("session"))
	order, err := sess.Checkout.PlaceOrder(ctx, sess.Cart.Snapshot(), req.UserID)
	if err != nil {
		status := http.StatusBadGateway
		message := "order could not be placed"

		if errors.Is(err, service.ErrEmptyCart) {
			status = http.StatusUnprocessableEntity
			message = "cart is empty"
		} else if errors.Is(err, service.ErrCheckoutInFlight) {
			status = http.StatusConflict
			message = "checkout already in progress"
		}

		log.WithField("session_id", sess.ID).WithError(err).Warn("checkout failed")
		c.JSON(status, gin.H{"error": message})
		return
	}

	// Cart is cleared only on success; a failed attempt keeps it for retry.
	h.sessions.ClearCart(ctx, sess.ID)
	sess.Checkout.ResetCheckoutState()

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h *HTTPHandler) listOrders(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *HTTPHandler) listAllOrders(c *gin.Context) {
	orders, err := h.orders.ListAllOrders(c.Request.Context(), actorFrom(c))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *HTTPHandler) updateOrderStatus(c *gin.Context) {
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	orders, err := h.orders.UpdateOrderStatus(
		c.Request.Context(),
		actorFrom(c),
		c.Param("orderId"),
		domain.OrderStatus(req.Status),
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order status"})
		case errors.Is(err, service.ErrTerminalStatus):
			c.JSON(http.StatusConflict, gin.H{"error": "order status is terminal"})
		default:
			// Reloaded orders still reflect storage truth on a failed update.
			c.JSON(http.StatusBadGateway, gin.H{"error": "status update failed", "orders": orders})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
