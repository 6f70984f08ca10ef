package router

import (
	"net/http"

	"github.com/senyabanana/auction-service/internal/handlers"
)

// Handlers - обработчики, которые подключаются к маршрутам.
type Handlers struct {
	Auth          *handlers.AuthMiddleware
	Users         *handlers.UserHandler
	Segments      *handlers.SegmentHandler
	Auctions      *handlers.AuctionHandler
	Proposals     *handlers.ProposalHandler
	Dashboard     *handlers.DashboardHandler
	Notifications *handlers.NotificationHandler
	Metrics       http.Handler
}

func InitRoutes(h Handlers) http.Handler {
	mux := http.NewServeMux()
	auth := h.Auth.Require

	mux.HandleFunc("/api/ping", handlers.PingHandler)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	mux.HandleFunc("/api/auth/register", h.Users.Register)
	mux.HandleFunc("/api/auth/login", h.Users.Login)
	mux.HandleFunc("GET /api/users/me", auth(h.Users.GetProfile))
	mux.HandleFunc("PUT /api/users/me", auth(h.Users.UpdateProfile))
	mux.HandleFunc("/api/segments", h.Segments.GetSegments)

	mux.HandleFunc("POST /api/auctions", auth(h.Auctions.CreateAuction))
	mux.HandleFunc("GET /api/auctions/my", auth(h.Auctions.GetMyAuctions))
	mux.HandleFunc("GET /api/auctions/available", auth(h.Auctions.GetAvailableAuctions))
	mux.HandleFunc("GET /api/auctions/{auctionId}", auth(h.Auctions.GetAuction))
	mux.HandleFunc("GET /api/auctions/{auctionId}/proposals", auth(h.Auctions.GetAuctionProposals))
	mux.HandleFunc("POST /api/auctions/{auctionId}/proposals", auth(h.Proposals.SubmitProposal))
	mux.HandleFunc("GET /api/auctions/{auctionId}/proposals/current", auth(h.Auctions.GetCurrentProposals))
	mux.HandleFunc("POST /api/auctions/{auctionId}/second-phase", auth(h.Auctions.AdvanceToSecondPhase))
	mux.HandleFunc("POST /api/auctions/{auctionId}/winner", auth(h.Auctions.SelectWinner))

	mux.HandleFunc("/api/dashboard", auth(h.Dashboard.GetDashboard))

	mux.HandleFunc("/api/notifications", auth(h.Notifications.GetNotifications))
	mux.HandleFunc("/api/notifications/unread", auth(h.Notifications.GetUnreadCount))
	mux.HandleFunc("/api/notifications/{notificationId}/read", auth(h.Notifications.MarkRead))

	return mux
}
