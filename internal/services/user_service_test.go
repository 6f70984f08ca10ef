package services

import (
	"context"
	"testing"
	"time"

	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type UserServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *repository.MemoryStore
	tokens  *TokenService
	service *UserService
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repository.NewMemoryStore()
	s.tokens = NewTokenService("test-secret", time.Hour)
	cfg := Config{Location: time.UTC, Now: func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }}
	s.service = NewUserService(s.store, NewSegmentService(s.store), s.tokens, cfg)
	s.service.hashCost = bcrypt.MinCost
}

func (s *UserServiceSuite) register(taxID, email string, userType models.UserType, segments ...string) *models.LoginResponse {
	resp, err := s.service.Register(s.ctx, models.RegisterRequest{
		Type:     userType,
		TaxID:    taxID,
		Email:    email,
		Password: "secret123",
		Name:     "Empresa " + taxID,
		Segments: segments,
	})
	s.Require().NoError(err)
	return resp
}

func (s *UserServiceSuite) TestRegisterAndLogin() {
	resp := s.register("529.982.247-25", "ana@example.com", models.Supplier, "TI", " ti ", "Obras")
	s.NotEmpty(resp.Token)
	s.Equal("52998224725", resp.User.TaxID)
	s.ElementsMatch([]string{"Obras", "TI"}, resp.User.Segments)
	s.True(resp.User.Active)

	actor, err := s.tokens.Parse(resp.Token)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, actor.UserID)
	s.Equal(models.Supplier, actor.Type)

	login, err := s.service.Login(s.ctx, models.LoginRequest{TaxID: "52998224725", Password: "secret123"})
	s.Require().NoError(err)
	s.Equal(resp.User.ID, login.User.ID)
	s.ElementsMatch([]string{"Obras", "TI"}, login.User.Segments)

	segments, err := s.store.Segments().List(s.ctx)
	s.Require().NoError(err)
	s.Len(segments, 2)
}

func (s *UserServiceSuite) TestRegisterValidation() {
	tests := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"bad cpf", models.RegisterRequest{Type: models.Buyer, TaxID: "52998224724", Email: "a@b.c", Password: "secret123", Name: "A"}},
		{"repeated digits", models.RegisterRequest{Type: models.Buyer, TaxID: "11111111111", Email: "a@b.c", Password: "secret123", Name: "A"}},
		{"bad cnpj", models.RegisterRequest{Type: models.Buyer, TaxID: "11222333000182", Email: "a@b.c", Password: "secret123", Name: "A"}},
		{"bad type", models.RegisterRequest{Type: "ADMIN", TaxID: "11222333000181", Email: "a@b.c", Password: "secret123", Name: "A"}},
		{"bad email", models.RegisterRequest{Type: models.Buyer, TaxID: "11222333000181", Email: "abc", Password: "secret123", Name: "A"}},
		{"no name", models.RegisterRequest{Type: models.Buyer, TaxID: "11222333000181", Email: "a@b.c", Password: "secret123"}},
		{"short password", models.RegisterRequest{Type: models.Buyer, TaxID: "11222333000181", Email: "a@b.c", Password: "123", Name: "A"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.Register(s.ctx, tt.req)
			s.Require().Error(err)
			s.Equal(models.KindValidation, models.KindOf(err))
		})
	}
}

func (s *UserServiceSuite) TestRegisterDuplicates() {
	s.register("11222333000181", "buyer@example.com", models.Buyer)

	_, err := s.service.Register(s.ctx, models.RegisterRequest{
		Type: models.Buyer, TaxID: "11.222.333/0001-81", Email: "other@example.com", Password: "secret123", Name: "B",
	})
	s.Equal(models.KindConflict, models.KindOf(err))

	_, err = s.service.Register(s.ctx, models.RegisterRequest{
		Type: models.Buyer, TaxID: "04252011000110", Email: "BUYER@example.com", Password: "secret123", Name: "B",
	})
	s.Equal(models.KindConflict, models.KindOf(err))
}

func (s *UserServiceSuite) TestLoginFailures() {
	s.register("11144477735", "joao@example.com", models.Buyer)

	_, err := s.service.Login(s.ctx, models.LoginRequest{TaxID: "11144477735", Password: "wrong-pass"})
	s.Equal(models.KindValidation, models.KindOf(err))

	_, err = s.service.Login(s.ctx, models.LoginRequest{TaxID: "12345678909", Password: "secret123"})
	s.Equal(models.KindValidation, models.KindOf(err))

	_, err = s.service.Login(s.ctx, models.LoginRequest{TaxID: "123", Password: "secret123"})
	s.Equal(models.KindValidation, models.KindOf(err))
}

func (s *UserServiceSuite) TestLoginInactiveUser() {
	resp := s.register("39053344705", "inactive@example.com", models.Supplier)
	user, err := s.store.Users().GetByID(s.ctx, resp.User.ID)
	s.Require().NoError(err)
	user.Active = false
	s.Require().NoError(s.store.Users().Update(s.ctx, user))

	_, err = s.service.Login(s.ctx, models.LoginRequest{TaxID: "39053344705", Password: "secret123"})
	s.Equal(models.KindRuleViolation, models.KindOf(err))
}

func (s *UserServiceSuite) TestUpdateProfile() {
	resp := s.register("45997418000153", "loja@example.com", models.Supplier, "TI")
	other := s.register("19131243000197", "taken@example.com", models.Supplier)
	actor := models.Actor{UserID: resp.User.ID, Type: models.Supplier}

	_, err := s.service.UpdateProfile(s.ctx, actor, models.ProfileRequest{
		CurrentPassword: "nope", Email: "loja@example.com", Name: "Loja",
	})
	s.Equal(models.KindValidation, models.KindOf(err))

	_, err = s.service.UpdateProfile(s.ctx, actor, models.ProfileRequest{
		CurrentPassword: "secret123", Email: other.User.Email, Name: "Loja",
	})
	s.Equal(models.KindConflict, models.KindOf(err))

	view, err := s.service.UpdateProfile(s.ctx, actor, models.ProfileRequest{
		CurrentPassword: "secret123", Email: "LOJA@example.com", Name: " Loja Nova ", State: "SP",
	})
	s.Require().NoError(err)
	s.Equal("Loja Nova", view.Name)
	s.Equal("SP", view.State)
	s.Equal([]string{"TI"}, view.Segments)

	view, err = s.service.UpdateProfile(s.ctx, actor, models.ProfileRequest{
		CurrentPassword: "secret123", Email: "loja@example.com", Name: "Loja", Segments: []string{"Obras"},
	})
	s.Require().NoError(err)
	s.Equal([]string{"Obras"}, view.Segments)

	profile, err := s.service.GetProfile(s.ctx, actor)
	s.Require().NoError(err)
	s.Equal("45997418000153", profile.TaxID)
	s.Equal([]string{"Obras"}, profile.Segments)

	_, err = s.service.GetProfile(s.ctx, models.Actor{UserID: uuid.New(), Type: models.Buyer})
	s.Equal(models.KindNotFound, models.KindOf(err))
}

func (s *UserServiceSuite) TestNotifications() {
	owner := s.register("52998224725", "owner@example.com", models.Buyer)
	stranger := s.register("11144477735", "stranger@example.com", models.Buyer)
	ownerActor := models.Actor{UserID: owner.User.ID, Type: models.Buyer}
	strangerActor := models.Actor{UserID: stranger.User.ID, Type: models.Buyer}

	auction := &models.Auction{
		ID: uuid.New(), BuyerID: owner.User.ID, Title: "Cadeiras",
		ClosingDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), Phase: models.PhaseOpen,
	}
	s.Require().NoError(s.store.Auctions().Create(s.ctx, auction))

	n := &models.Notification{
		ID: uuid.New(), UserID: owner.User.ID, AuctionID: auction.ID,
		Type: models.NotificationWinner, Message: "hello", CreatedAt: time.Now(),
	}
	s.Require().NoError(s.store.Notifications().Create(s.ctx, n))

	service := NewNotificationService(s.store)

	unread, err := service.CountUnread(s.ctx, ownerActor)
	s.Require().NoError(err)
	s.Equal(1, unread)

	err = service.MarkRead(s.ctx, strangerActor, n.ID)
	s.Equal(models.KindNotFound, models.KindOf(err))

	s.Require().NoError(service.MarkRead(s.ctx, ownerActor, n.ID))
	s.Require().NoError(service.MarkRead(s.ctx, ownerActor, n.ID))

	unread, err = service.CountUnread(s.ctx, ownerActor)
	s.Require().NoError(err)
	s.Zero(unread)

	list, err := service.ListNotifications(s.ctx, strangerActor, 20, 0)
	s.Require().NoError(err)
	s.NotNil(list)
	s.Empty(list)

	err = service.MarkRead(s.ctx, ownerActor, uuid.New())
	s.Equal(models.KindNotFound, models.KindOf(err))
}
