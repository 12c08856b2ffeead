package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"couture-commerce/internal/ratelimit"
	"couture-commerce/internal/service"
	"couture-commerce/internal/store"
	"couture-commerce/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const checkoutRateLimit = 5 // per caller per minute

// Handler contains the HTTP handlers
type Handler struct {
	orders    *service.OrderService
	payments  *service.PaymentService
	reconcile *service.ReconcileService
	limiter   *ratelimit.Limiter

	authSecret      string
	reconcileSecret string
	logger          *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	payments *service.PaymentService,
	reconcile *service.ReconcileService,
	limiter *ratelimit.Limiter,
	authSecret, reconcileSecret string,
) *Handler {
	return &Handler{
		orders:          orders,
		payments:        payments,
		reconcile:       reconcile,
		limiter:         limiter,
		authSecret:      authSecret,
		reconcileSecret: reconcileSecret,
		logger:          util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// public catalog reads
	router.GET("/api/v1/products", h.listProducts)
	router.GET("/api/v1/products/:id/variants", h.listVariants)

	// trusted server-to-server trigger, not a user session
	internal := router.Group("/api/v1/reconcile", sharedSecretRequired(h.reconcileSecret))
	{
		internal.GET("", h.runReconcile)
		internal.GET("/status", h.reconcileStatus)
	}

	v1 := router.Group("/api/v1", authRequired(h.authSecret))
	{
		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PUT("/cart/items/:variantId", h.setCartQuantity)
		v1.DELETE("/cart/items/:variantId", h.removeCartItem)

		v1.POST("/checkout",
			h.limiter.Middleware("checkout", checkoutRateLimit, time.Minute),
			h.checkout)

		v1.POST("/payments", h.createPayment)
		v1.POST("/payments/verify", h.verifyPayment)

		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/cancel", h.cancelOrder)

		admin := v1.Group("/admin", adminRequired())
		admin.PATCH("/orders/:id/status", h.updateOrderStatus)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Unix()})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready", "time": time.Now().Unix()})
}

// respondError maps service and store errors onto the API error taxonomy.
// Internal details of unexpected failures are logged, never leaked.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
	case errors.Is(err, service.ErrMissingShipping):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSignatureMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment verification failed"})
	case errors.Is(err, store.ErrAlreadyCancelled):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order is already cancelled"})
	case errors.Is(err, store.ErrNotCancellable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order can no longer be cancelled"})
	case errors.Is(err, store.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "Some items are no longer in stock", "details": err.Error()})
	case errors.Is(err, store.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "Order is already paid"})
	case errors.Is(err, service.ErrPaymentInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "A payment attempt is already in progress"})
	case errors.Is(err, store.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Illegal status transition"})
	case errors.Is(err, store.ErrOrderNotFound), errors.Is(err, store.ErrVariantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, service.ErrGateway):
		h.logger.Error("Payment gateway failure", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment service unavailable, try again"})
	default:
		h.logger.Error("Unexpected handler error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}

func (h *Handler) checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	orderID, err := h.orders.Checkout(c.Request.Context(), callerID(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order_id": orderID})
}

type createPaymentRequest struct {
	OrderID int64 `json:"order_id" binding:"required"`
}

func (h *Handler) createPayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session, err := h.payments.CreatePayment(c.Request.Context(), callerID(c), req.OrderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *Handler) verifyPayment(c *gin.Context) {
	var req service.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.payments.VerifyPayment(c.Request.Context(), callerID(c), &req); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) runReconcile(c *gin.Context) {
	summary, err := h.reconcile.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("Reconcile sweep failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Sweep failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"checked":   summary.Checked,
		"confirmed": summary.Confirmed,
		"errors":    summary.Errors,
	})
}

func (h *Handler) reconcileStatus(c *gin.Context) {
	run, err := h.reconcile.LastRun(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if run == nil {
		c.JSON(http.StatusOK, gin.H{"ran": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ran": true, "last_run": run})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.orders.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) listVariants(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	variants, err := h.orders.ListVariants(c.Request.Context(), productID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variants": variants})
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, items, err := h.orders.GetOrder(c.Request.Context(), callerID(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order, "items": items})
}

func (h *Handler) cancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	if err := h.orders.Cancel(c.Request.Context(), callerID(c), orderID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), orderID, req.Status); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) getCart(c *gin.Context) {
	items, err := h.orders.GetCart(c.Request.Context(), callerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type addCartItemRequest struct {
	VariantID int64 `json:"variant_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.orders.AddToCart(c.Request.Context(), callerID(c), req.VariantID, req.Quantity); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type setCartQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *Handler) setCartQuantity(c *gin.Context) {
	variantID, err := strconv.ParseInt(c.Param("variantId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant ID"})
		return
	}

	var req setCartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if *req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must not be negative"})
		return
	}

	if err := h.orders.SetCartQuantity(c.Request.Context(), callerID(c), variantID, *req.Quantity); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) removeCartItem(c *gin.Context) {
	variantID, err := strconv.ParseInt(c.Param("variantId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant ID"})
		return
	}

	if err := h.orders.RemoveFromCart(c.Request.Context(), callerID(c), variantID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
