package services

import (
	"context"
	"errors"
	"strings"

	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/repository"
	"github.com/senyabanana/auction-service/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type UserService struct {
	Store    repository.Store
	Segments *SegmentService
	Tokens   *TokenService
	cfg      Config
	hashCost int
}

// NewUserService создаёт новый экземпляр UserService.
func NewUserService(store repository.Store, segments *SegmentService, tokens *TokenService, cfg Config) *UserService {
	return &UserService{Store: store, Segments: segments, Tokens: tokens, cfg: cfg.withDefaults(), hashCost: bcrypt.DefaultCost}
}

// Register создаёт учётную запись и возвращает токен доступа.
// Неизвестные сегменты создаются.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	taxID := utils.OnlyDigits(req.TaxID)
	if !utils.ValidTaxID(taxID) {
		return nil, models.NewValidationError("invalid CPF or CNPJ")
	}
	if req.Type != models.Buyer && req.Type != models.Supplier {
		return nil, models.NewValidationError("user type must be BUYER or SUPPLIER")
	}
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, models.NewValidationError("a valid email is required")
	}
	if name == "" {
		return nil, models.NewValidationError("name is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, models.NewValidationError("password must have at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, models.NewValidationError("password is too long")
		}
		return nil, err
	}

	var view *models.UserView
	err = s.Store.RunInTx(ctx, func(tx repository.Repositories) error {
		exists, err := tx.Users().ExistsByTaxID(ctx, taxID)
		if err != nil {
			return err
		}
		if exists {
			return models.NewConflictError("CPF/CNPJ already registered")
		}
		if exists, err = tx.Users().ExistsByEmail(ctx, email); err != nil {
			return err
		}
		if exists {
			return models.NewConflictError("email already registered")
		}

		segments, err := s.Segments.Ensure(ctx, tx, req.Segments)
		if err != nil {
			return err
		}

		now := s.cfg.now()
		user := &models.User{
			ID:           uuid.New(),
			Type:         req.Type,
			TaxID:        taxID,
			Email:        email,
			PasswordHash: string(hash),
			Phone:        strings.TrimSpace(req.Phone),
			Name:         name,
			PostalCode:   strings.TrimSpace(req.PostalCode),
			Address:      strings.TrimSpace(req.Address),
			State:        strings.TrimSpace(req.State),
			SegmentIDs:   models.SegmentIDs(segments),
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return storeError(err, "user not found", "CPF/CNPJ or email already registered")
		}
		view = &models.UserView{User: *user, Segments: models.SegmentNames(segments)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loginResponse(view)
}

// Login проверяет CPF/CNPJ и пароль и возвращает токен доступа.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	taxID := utils.OnlyDigits(req.TaxID)
	if !utils.IsCPF(taxID) && !utils.IsCNPJ(taxID) {
		return nil, models.NewValidationError("invalid CPF or CNPJ")
	}

	user, err := s.Store.Users().GetByTaxID(ctx, taxID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, models.NewValidationError("invalid CPF/CNPJ or password")
	}
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, models.NewRuleViolation("user is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.NewValidationError("invalid CPF/CNPJ or password")
	}

	view, err := userView(ctx, s.Store, user)
	if err != nil {
		return nil, err
	}
	return s.loginResponse(view)
}

// GetProfile возвращает профиль текущего пользователя.
func (s *UserService) GetProfile(ctx context.Context, actor models.Actor) (*models.UserView, error) {
	user, err := s.Store.Users().GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, storeError(err, "user not found", "")
	}
	return userView(ctx, s.Store, user)
}

// UpdateProfile меняет профиль после проверки текущего пароля.
// Сегменты заменяются, только если переданы.
func (s *UserService) UpdateProfile(ctx context.Context, actor models.Actor, req models.ProfileRequest) (*models.UserView, error) {
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, models.NewValidationError("a valid email is required")
	}
	if name == "" {
		return nil, models.NewValidationError("name is required")
	}

	var view *models.UserView
	err := s.Store.RunInTx(ctx, func(tx repository.Repositories) error {
		user, err := tx.Users().GetByID(ctx, actor.UserID)
		if err != nil {
			return storeError(err, "user not found", "")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			return models.NewValidationError("current password is incorrect")
		}

		if !strings.EqualFold(email, user.Email) {
			exists, err := tx.Users().ExistsByEmail(ctx, email)
			if err != nil {
				return err
			}
			if exists {
				return models.NewConflictError("email already registered")
			}
		}

		user.Email = email
		user.Name = name
		user.Phone = strings.TrimSpace(req.Phone)
		user.PostalCode = strings.TrimSpace(req.PostalCode)
		user.Address = strings.TrimSpace(req.Address)
		user.State = strings.TrimSpace(req.State)
		user.PhotoURL = strings.TrimSpace(req.PhotoURL)
		user.UpdatedAt = s.cfg.now()

		if len(utils.NormalizeNames(req.Segments)) > 0 {
			segments, err := s.Segments.Ensure(ctx, tx, req.Segments)
			if err != nil {
				return err
			}
			user.SegmentIDs = models.SegmentIDs(segments)
		}

		if err := tx.Users().Update(ctx, user); err != nil {
			return storeError(err, "user not found", "email already registered")
		}
		view, err = userView(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *UserService) loginResponse(view *models.UserView) (*models.LoginResponse, error) {
	token, err := s.Tokens.Issue(&view.User)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, User: *view}, nil
}

func userView(ctx context.Context, repos repository.Repositories, user *models.User) (*models.UserView, error) {
	view := &models.UserView{User: *user, Segments: []string{}}
	if len(user.SegmentIDs) == 0 {
		return view, nil
	}
	segments, err := repos.Segments().ListByIDs(ctx, user.SegmentIDs)
	if err != nil {
		return nil, err
	}
	view.Segments = models.SegmentNames(segments)
	return view, nil
}
