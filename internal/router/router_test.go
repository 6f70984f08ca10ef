package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/senyabanana/auction-service/internal/handlers"
	"github.com/senyabanana/auction-service/internal/metrics"
	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/notify"
	"github.com/senyabanana/auction-service/internal/repository"
	"github.com/senyabanana/auction-service/internal/router"
	"github.com/senyabanana/auction-service/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type APISuite struct {
	suite.Suite
	server     *httptest.Server
	dispatcher *notify.Dispatcher
	done       chan error
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	logger := log.New(io.Discard, "", 0)
	store := repository.NewMemoryStore()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	s.dispatcher = notify.NewDispatcher(store, notify.NewLogMailer(logger), m, logger, 2, 16)
	s.done = make(chan error, 1)
	go func() { s.done <- s.dispatcher.Run(context.Background()) }()

	cfg := services.Config{
		FeeRate:        services.DefaultFeeRate,
		MinClosingDays: 3,
		Location:       time.UTC,
		Now:            func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
	}
	tokens := services.NewTokenService("test-secret", time.Hour)
	segments := services.NewSegmentService(store)
	timeout := 5 * time.Second

	s.server = httptest.NewServer(router.InitRoutes(router.Handlers{
		Auth:          handlers.NewAuthMiddleware(tokens, logger),
		Users:         handlers.NewUserHandler(services.NewUserService(store, segments, tokens, cfg), logger, timeout),
		Segments:      handlers.NewSegmentHandler(segments, logger, timeout),
		Auctions:      handlers.NewAuctionHandler(services.NewAuctionService(store, segments, s.dispatcher, m, cfg), logger, timeout),
		Proposals:     handlers.NewProposalHandler(services.NewProposalService(store, s.dispatcher, m, cfg), logger, timeout),
		Dashboard:     handlers.NewDashboardHandler(services.NewDashboardService(store, cfg), logger, timeout),
		Notifications: handlers.NewNotificationHandler(services.NewNotificationService(store), logger, timeout),
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}))
}

func (s *APISuite) TearDownTest() {
	s.server.Close()
	s.dispatcher.Close()
	s.Require().NoError(<-s.done)
}

func (s *APISuite) do(method, path, token string, body any, out any) int {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *APISuite) register(userType models.UserType, taxID, email string, segments ...string) models.LoginResponse {
	var resp models.LoginResponse
	status := s.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Type: userType, TaxID: taxID, Email: email, Password: "secret123", Name: email, Segments: segments,
	}, &resp)
	s.Require().Equal(http.StatusOK, status)
	return resp
}

func (s *APISuite) TestPing() {
	resp, err := http.Get(s.server.URL + "/api/ping")
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", string(body))
}

func (s *APISuite) TestAuthRequired() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/users/me", "", nil, nil))
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/dashboard", "not-a-token", nil, nil))
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/segments", "", nil, nil))
}

func (s *APISuite) TestErrorBody() {
	req, err := http.NewRequest(http.MethodPost, s.server.URL+"/api/auth/login", strings.NewReader("{"))
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var body map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("invalid request body", body["reason"])
}

func (s *APISuite) TestAuctionFlow() {
	buyer := s.register(models.Buyer, "11222333000181", "buyer@example.com")
	supplier := s.register(models.Supplier, "52998224725", "supplier@example.com", "TI")
	stranger := s.register(models.Supplier, "11144477735", "stranger@example.com", "Obras")
	rival := s.register(models.Buyer, "04252011000110", "rival@example.com")

	var auction models.AuctionView
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/auctions", buyer.Token, models.AuctionRequest{
		Title: "Notebooks", ClosingDate: "2026-03-12", Segments: []string{"TI"},
	}, nil))
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/auctions", buyer.Token, models.AuctionRequest{
		Title: "Notebooks", ClosingDate: "2026-03-20", Segments: []string{"ti"},
	}, &auction))
	s.Equal(models.PhaseOpen, auction.Phase)
	path := "/api/auctions/" + auction.ID.String()

	var available []models.AuctionView
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/api/auctions/available", supplier.Token, nil, &available))
	s.Len(available, 1)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, path, stranger.Token, nil, nil))
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/auctions/not-a-uuid", buyer.Token, nil, nil))

	var proposal models.ProposalView
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, path+"/proposals", supplier.Token, map[string]any{
		"description": "20 units", "budget": 200,
	}, &proposal))
	s.True(proposal.AmountWithFee.Equal(decimal.NewFromInt(220)))
	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodPost, path+"/proposals", supplier.Token, map[string]any{
		"budget": 150,
	}, nil))

	var current []models.ProposalView
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, path+"/proposals/current", buyer.Token, nil, &current))
	s.Require().Len(current, 1)
	s.Equal("supplier@example.com", current[0].SupplierEmail)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, path+"/proposals", rival.Token, nil, nil))

	winner := models.WinnerRequest{ProposalID: proposal.ID}
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, path+"/winner", rival.Token, winner, nil))

	var closed models.AuctionView
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, path+"/winner", buyer.Token, winner, &closed))
	s.Equal(models.PhaseClosed, closed.Phase)
	s.NotNil(closed.ClosedAt)
	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodPost, path+"/winner", buyer.Token, winner, nil))

	var dashboard models.Dashboard
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/api/dashboard", buyer.Token, nil, &dashboard))
	s.Equal(1, dashboard.Closed)
	s.True(dashboard.CurrentMonthSpend.Equal(decimal.NewFromInt(220)))
	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodGet, "/api/dashboard", supplier.Token, nil, nil))

	s.Eventually(func() bool {
		var unread map[string]int
		if s.do(http.MethodGet, "/api/notifications/unread", supplier.Token, nil, &unread) != http.StatusOK {
			return false
		}
		return unread["unread"] == 2
	}, 2*time.Second, 10*time.Millisecond)

	var inbox []models.Notification
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/api/notifications", supplier.Token, nil, &inbox))
	s.Require().Len(inbox, 2)
	s.Equal(http.StatusNotFound, s.do(http.MethodPatch, "/api/notifications/"+inbox[0].ID.String()+"/read", buyer.Token, nil, nil))
	s.Equal(http.StatusNoContent, s.do(http.MethodPatch, "/api/notifications/"+inbox[0].ID.String()+"/read", supplier.Token, nil, nil))

	var unread map[string]int
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/api/notifications/unread", supplier.Token, nil, &unread))
	s.Equal(1, unread["unread"])
}

func (s *APISuite) TestProfile() {
	user := s.register(models.Supplier, "45997418000153", "loja@example.com", "TI")

	var profile models.UserView
	s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/api/users/me", user.Token, nil, &profile))
	s.Equal("45997418000153", profile.TaxID)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPut, "/api/users/me", user.Token, models.ProfileRequest{
		CurrentPassword: "wrong", Email: "loja@example.com", Name: "Loja",
	}, nil))
	s.Require().Equal(http.StatusOK, s.do(http.MethodPut, "/api/users/me", user.Token, models.ProfileRequest{
		CurrentPassword: "secret123", Email: "loja@example.com", Name: "Loja Nova",
	}, &profile))
	s.Equal("Loja Nova", profile.Name)

	var login models.LoginResponse
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{
		TaxID: "45.997.418/0001-53", Password: "secret123",
	}, &login))
	s.NotEmpty(login.Token)
}

func (s *APISuite) TestMetricsEndpoint() {
	s.register(models.Buyer, "19131243000197", "metrics@example.com")

	resp, err := http.Get(s.server.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), "auction_notifications_dropped_total")
}
