package services

import (
	"errors"
	"time"

	"github.com/senyabanana/auction-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "auction-service"

// ErrInvalidToken возвращается для просроченного, подделанного или некорректного токена.
var ErrInvalidToken = errors.New("invalid token")

// Claims - содержимое токена доступа.
type Claims struct {
	UserType models.UserType `json:"user_type"`
	jwt.RegisteredClaims
}

// TokenService выпускает и проверяет токены доступа HS256.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenService создаёт новый экземпляр TokenService.
func NewTokenService(signingKey string, ttl time.Duration) *TokenService {
	return &TokenService{signingKey: []byte(signingKey), ttl: ttl, now: time.Now}
}

// Issue выпускает токен для пользователя.
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserType: user.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Parse проверяет токен и возвращает пользователя, от имени которого выполняется запрос.
func (s *TokenService) Parse(raw string) (models.Actor, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return models.Actor{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return models.Actor{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Actor{}, ErrInvalidToken
	}
	if claims.UserType != models.Buyer && claims.UserType != models.Supplier {
		return models.Actor{}, ErrInvalidToken
	}
	return models.Actor{UserID: userID, Type: claims.UserType}, nil
}
