package models

import (
	"time"

	"github.com/google/uuid"
)

type UserType string // Тип учётной записи

const (
	Buyer    UserType = "BUYER"    // Компания-заказчик
	Supplier UserType = "SUPPLIER" // Поставщик
)

// Actor - пользователь, от имени которого выполняется операция.
type Actor struct {
	UserID uuid.UUID
	Type   UserType
}

// User представляет модель пользователя.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Type         UserType    `json:"type"`
	TaxID        string      `json:"taxId"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Phone        string      `json:"phone,omitempty"`
	Name         string      `json:"name"`
	PostalCode   string      `json:"postalCode,omitempty"`
	Address      string      `json:"address,omitempty"`
	State        string      `json:"state,omitempty"`
	PhotoURL     string      `json:"photoUrl,omitempty"`
	SegmentIDs   []uuid.UUID `json:"-"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// RegisterRequest представляет структуру запроса на регистрацию.
type RegisterRequest struct {
	Type       UserType `json:"type"`
	TaxID      string   `json:"taxId"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Phone      string   `json:"phone"`
	Name       string   `json:"name"`
	PostalCode string   `json:"postalCode"`
	Address    string   `json:"address"`
	State      string   `json:"state"`
	Segments   []string `json:"segments"`
}

// LoginRequest представляет структуру запроса на вход.
type LoginRequest struct {
	TaxID    string `json:"taxId"`
	Password string `json:"password"`
}

// ProfileRequest представляет структуру запроса на обновление профиля.
type ProfileRequest struct {
	CurrentPassword string   `json:"currentPassword"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Name            string   `json:"name"`
	PostalCode      string   `json:"postalCode"`
	Address         string   `json:"address"`
	State           string   `json:"state"`
	PhotoURL        string   `json:"photoUrl"`
	Segments        []string `json:"segments"`
}

// UserView представляет пользователя в ответе API.
type UserView struct {
	User
	Segments []string `json:"segments"`
}

// LoginResponse возвращается после успешной регистрации или входа.
type LoginResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}
