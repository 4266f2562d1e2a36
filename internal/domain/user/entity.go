package user

import (
	"time"

	"github.com/google/uuid"
)

// Roles assigned by the identity subsystem.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is owned by the identity/profile subsystem. Messaging and payment
// code only ever references it by id and trusts the authenticated role.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	DisplayName string
	Role        string `gorm:"default:user"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (User) TableName() string {
	return "users"
}
