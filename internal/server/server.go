package server

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/config"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/domain"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/metrics"
	"github.com/MuhammadAnas567/Advanced-Payment-Integration-Project/internal/usecase"
)

type Server struct {
	cfg      config.Config
	orders   *usecase.OrderService
	payments *usecase.PaymentService
	auth     *usecase.AuthService
	metrics  *metrics.Registry
	engine   *gin.Engine
}

func New(cfg config.Config, orders *usecase.OrderService, payments *usecase.PaymentService, auth *usecase.AuthService, reg *metrics.Registry) *Server {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:      cfg,
		orders:   orders,
		payments: payments,
		auth:     auth,
		metrics:  reg,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.logging(), s.cors())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.engine.Group("/api")
	api.POST("/auth/login", s.handleLogin)
	api.GET("/order/:id", s.handleGetOrder)
	api.GET("/orders", s.handleListOrders)
	api.GET("/payment/:id", s.handleGetPayment)
	api.GET("/payments", s.handleListPayments)

	mut := api.Group("")
	mut.Use(s.authRequired())
	mut.POST("/create-order", s.handleCreateOrder)
	mut.POST("/create-payment-intent", s.handleCreateIntent)
	mut.POST("/confirm-payment", s.handleConfirmPayment)
	mut.POST("/refund", s.handleRefund)
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}

func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.auth == nil || !s.auth.Enabled() {
			c.Next()
			return
		}
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "authorization required"})
			return
		}
		if _, err := s.auth.Verify(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}
		c.Next()
	}
}

type loginReq struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) handleLogin(c *gin.Context) {
	if s.auth == nil || !s.auth.Enabled() {
		c.JSON(http.StatusOK, gin.H{"success": true, "token": ""})
		return
	}
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, usecase.ErrBadRequest("invalid json"))
		return
	}
	token, err := s.auth.Login(req.APIKey)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid api key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

type createOrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type createOrderReq struct {
	Items           []createOrderItem `json:"items"`
	Currency        string            `json:"currency"`
	ShippingAddress domain.Address    `json:"shippingAddress"`
	BillingAddress  domain.Address    `json:"billingAddress"`
	CustomerEmail   string            `json:"customerEmail"`
	CustomerName    string            `json:"customerName"`
	CustomerPhone   string            `json:"customerPhone"`
	Notes           string            `json:"notes"`
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, usecase.ErrBadRequest("invalid json"))
		return
	}
	in := usecase.CreateOrderInput{
		Currency:        req.Currency,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		Notes:           req.Notes,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, usecase.OrderItemInput{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
		})
	}
	o, err := s.orders.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Order created successfully", "order": o})
}

type createIntentReq struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	OrderID     string          `json:"orderId"`
	Description string          `json:"description"`
}

func (s *Server) handleCreateIntent(c *gin.Context) {
	var req createIntentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, usecase.ErrBadRequest("invalid json"))
		return
	}
	amount, err := domain.FromDecimal(req.Amount, req.Currency)
	if err != nil {
		s.fail(c, usecase.ErrBadRequest("invalid amount"))
		return
	}
	res, err := s.payments.Initiate(c.Request.Context(), req.OrderID, amount, req.Description)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"clientSecret": res.ClientSecret,
		"paymentId":    res.Payment.PaymentID,
	})
}

type confirmReq struct {
	PaymentID       string `json:"paymentId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

func (s *Server) handleConfirmPayment(c *gin.Context) {
	var req confirmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, usecase.ErrBadRequest("invalid json"))
		return
	}
	p, outcome, err := s.payments.Confirm(c.Request.Context(), req.PaymentID, req.PaymentIntentID)
	if err != nil {
		s.fail(c, err)
		return
	}
	switch outcome {
	case usecase.OutcomeCompleted:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Payment successful", "payment": p})
	case usecase.OutcomeRequiresAction:
		c.JSON(http.StatusOK, gin.H{"success": false, "requiresAction": true, "message": "Payment requires further action"})
	case usecase.OutcomePending:
		c.JSON(http.StatusOK, gin.H{"success": false, "pending": true, "message": "Payment not settled yet, retry later"})
	case usecase.OutcomeRefunded:
		c.JSON(http.StatusOK, gin.H{"success": false, "refunded": true, "message": "Payment already refunded", "payment": p})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Payment failed", "payment": p})
	}
}

type refundReq struct {
	PaymentID string           `json:"paymentId"`
	Amount    *decimal.Decimal `json:"amount"`
	Reason    string           `json:"reason"`
}

func (s *Server) handleRefund(c *gin.Context) {
	var req refundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, usecase.ErrBadRequest("invalid json"))
		return
	}
	p, err := s.payments.Refund(c.Request.Context(), req.PaymentID, req.Amount, req.Reason)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Refund processed successfully", "refund": p})
}

func (s *Server) handleGetOrder(c *gin.Context) {
	o, err := s.orders.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": o})
}

func (s *Server) handleGetPayment(c *gin.Context) {
	p, err := s.payments.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payment": p})
}

func (s *Server) handleListOrders(c *gin.Context) {
	page, pageSize, err := pageParams(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	items, total, err := s.orders.List(c.Query("status"), page, pageSize)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"orders":     items,
		"pagination": pagination(total, page, pageSize),
	})
}

func (s *Server) handleListPayments(c *gin.Context) {
	page, pageSize, err := pageParams(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	items, total, err := s.payments.List(c.Query("status"), page, pageSize)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"payments":   items,
		"pagination": pagination(total, page, pageSize),
	})
}

func pageParams(c *gin.Context) (int, int, error) {
	page, pageSize := 1, 10
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.ErrBadRequest("invalid page")
		}
		page = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.ErrBadRequest("invalid page")
		}
		pageSize = n
	}
	return page, pageSize, nil
}

func pagination(total, page, pageSize int) gin.H {
	return gin.H{
		"total": total,
		"page":  page,
		"pages": int(math.Ceil(float64(total) / float64(pageSize))),
	}
}

var kindToStatus = map[string]int{
	"bad_request":     http.StatusBadRequest,
	"not_found":       http.StatusNotFound,
	"conflict":        http.StatusConflict,
	"gateway":         http.StatusBadGateway,
	"gateway_timeout": http.StatusGatewayTimeout,
	"internal":        http.StatusInternalServerError,
}

func (s *Server) fail(c *gin.Context, err error) {
	kind := usecase.Kind(err)
	status, ok := kindToStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"success": false, "message": err.Error(), "kind": kind})
}
