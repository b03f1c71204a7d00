package entity

import "github.com/google/uuid"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Actor — текущий пользователь, совершающий действие.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func NewActor(userID uuid.UUID, role string) Actor {
	return Actor{UserID: userID, Role: role}
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) Owns(userID uuid.UUID) bool {
	return a.UserID != uuid.Nil && a.UserID == userID
}
