package server

import (
	"net/http"

	handler "bidding-engine/services/bidding/handler"
	"bidding-engine/utils"

	"github.com/gin-gonic/gin"
)

// Services groups what the router exposes
type Services struct {
	Rounds        handler.RoundManagerInterface
	Bidding       handler.BiddingServiceInterface
	Participation handler.ParticipationServiceInterface
	Orders        handler.OrderServiceInterface
	Payments      handler.PaymentServiceInterface

	// CallbackSecret guards the provider callback; empty disables the check.
	CallbackSecret string
	// PaymentRatePerMinute bounds payment initiation per user; 0 disables it.
	PaymentRatePerMinute int
	// PaidParticipation restricts direct joins to admins, so users enter
	// rounds only by paying the fee through M-Pesa.
	PaidParticipation bool
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(svc Services) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(IdentityMiddleware)      // caller identity from trusted headers
	router.Use(RequestLoggerMiddleware) // custom request logging

	roundHandler := handler.NewRoundHandler(svc.Rounds)
	biddingHandler := handler.NewBiddingHandler(svc.Bidding)
	participationHandler := handler.NewParticipationHandler(svc.Participation)
	orderHandler := handler.NewOrderHandler(svc.Orders)
	paymentHandler := handler.NewPaymentHandler(svc.Payments, svc.CallbackSecret)

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"healthy": true}, "ok")
	})

	auctions := router.Group("/auctions")
	{
		auctions.POST("/", RequireAdmin, roundHandler.CreateAuctionHandler)
		auctions.GET("/:id/", roundHandler.GetAuctionHandler)
		auctions.POST("/:id/activate/", RequireAdmin, roundHandler.ActivateAuctionHandler)
		auctions.GET("/:id/rounds/", roundHandler.ListRoundsHandler)
		auctions.GET("/:id/participants/", RequireAdmin, participationHandler.ParticipantsHandler)
		auctions.GET("/:id/bids_list/", RequireAdmin, biddingHandler.BidsListHandler)
		auctions.GET("/:id/leaderboard/", RequireUser, biddingHandler.LeaderboardHandler)
		auctions.GET("/:id/revenue_summary/", RequireAdmin, roundHandler.RevenueSummaryHandler)
		auctions.POST("/:id/create_next_round/", RequireAdmin, roundHandler.CreateNextRoundHandler)
	}

	rounds := router.Group("/rounds", RequireAdmin)
	{
		rounds.POST("/:id/close/", roundHandler.CloseRoundHandler)
	}

	joinGuard := gin.HandlerFunc(RequireUser)
	if svc.PaidParticipation {
		joinGuard = RequireAdmin
	}
	router.POST("/participations/", joinGuard, participationHandler.JoinRoundHandler)
	router.POST("/bids/", RequireUser, biddingHandler.PlaceBidHandler)

	orders := router.Group("/orders", RequireUser)
	{
		orders.POST("/", orderHandler.CheckoutHandler)
		orders.GET("/", orderHandler.ListOrdersHandler)
		orders.GET("/:id/", orderHandler.GetOrderHandler)
		orders.POST("/:id/cancel/", orderHandler.CancelOrderHandler)
		orders.PATCH("/:id/status/", RequireAdmin, orderHandler.UpdateOrderStatusHandler)
	}

	throttle := NewThrottle(svc.PaymentRatePerMinute)
	payments := router.Group("/payments/mpesa")
	{
		payments.POST("/callback/", paymentHandler.CallbackHandler)
		payments.POST("/initiate-order/", RequireUser, throttle.Middleware(), paymentHandler.InitiateOrderPaymentHandler)
		payments.POST("/initiate-participation/", RequireUser, throttle.Middleware(), paymentHandler.InitiateParticipationPaymentHandler)
		payments.GET("/order-status/:orderId/", RequireUser, paymentHandler.OrderPaymentStatusHandler)
		payments.GET("/participation-status/:auctionId/", RequireUser, paymentHandler.ParticipationPaymentStatusHandler)
		payments.GET("/my-transactions/", RequireUser, paymentHandler.MyTransactionsHandler)
	}

	admin := router.Group("/admin", RequireAdmin)
	{
		admin.GET("/orders/stats/", orderHandler.OrderStatsHandler)
		admin.POST("/payments/:id/cancel/", paymentHandler.CancelPaymentHandler)
	}

	return router
}
