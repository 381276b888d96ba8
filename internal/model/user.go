package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// RoleAdmin is the only role allowed to have its role and designation changed.
	RoleAdmin = "ADMIN"
	// StatusEnabled is the status assigned to new users.
	StatusEnabled = "ENABLED"
)

// ErrUserIDTaken is returned when the derived public user id collides with an existing one,
// e.g. "a1" with key 1 and "a" with key 11.
var ErrUserIDTaken = errors.New("user id already exists")

// User represents an account in the directory.
type User struct {
	ID             uint64    `json:"-" gorm:"primaryKey;autoIncrement"`
	UserID         string    `json:"user_id" gorm:"size:300;not null;uniqueIndex"`
	FirstName      string    `json:"first_name" gorm:"size:255;not null"`
	LastName       string    `json:"last_name" gorm:"size:255;not null"`
	MiddleName     string    `json:"middle_name,omitempty" gorm:"size:255"`
	PasswordHash   string    `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
	Role           string    `json:"role" gorm:"size:50;not null;index"`
	OrganizationID string    `json:"organization_id" gorm:"size:255;not null;index"`
	Designation    string    `json:"designation,omitempty" gorm:"size:255"`
	Phone          *string   `json:"phone,omitempty" gorm:"size:10;uniqueIndex"`
	Email          *string   `json:"email,omitempty" gorm:"size:255;uniqueIndex"`
	Status         string    `json:"status" gorm:"size:50;not null;default:'ENABLED';index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeCreate gives the row a unique placeholder user id until the primary key is known.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == "" {
		u.UserID = uuid.New().String()
	}
	if u.Status == "" {
		u.Status = StatusEnabled
	}
	return nil
}

// AfterCreate derives the public user id from the first name and the assigned primary key.
// It runs inside the insert transaction, so a failure rolls the insert back.
func (u *User) AfterCreate(tx *gorm.DB) error {
	u.UserID = DeriveUserID(u.FirstName, u.ID)
	if err := tx.Model(u).UpdateColumn("user_id", u.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrUserIDTaken, u.UserID)
		}
		return err
	}
	return nil
}

// DeriveUserID builds the public identifier for a user.
func DeriveUserID(firstName string, id uint64) string {
	return firstName + strconv.FormatUint(id, 10)
}

// UserDTO is the externally visible projection of a User.
type UserDTO struct {
	UserID         string    `json:"user_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	MiddleName     string    `json:"middle_name,omitempty"`
	Designation    string    `json:"designation,omitempty"`
	Role           string    `json:"role"`
	OrganizationID string    `json:"organization_id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToDTO converts the user to its external projection.
func (u *User) ToDTO() UserDTO {
	return UserDTO{
		UserID:         u.UserID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Email:          u.Email,
		Phone:          u.Phone,
		MiddleName:     u.MiddleName,
		Designation:    u.Designation,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
		Status:         u.Status,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// UserFilter holds the optional exact-match filters for a user search.
// Empty fields do not filter.
type UserFilter struct {
	Role           string
	Status         string
	OrganizationID string
}

// Matches reports whether u satisfies every non-empty filter field.
func (f UserFilter) Matches(u *User) bool {
	if f.OrganizationID != "" && f.OrganizationID != u.OrganizationID {
		return false
	}
	if f.Role != "" && f.Role != u.Role {
		return false
	}
	if f.Status != "" && f.Status != u.Status {
		return false
	}
	return true
}

// UserPage is one page of a filtered user search.
type UserPage struct {
	Count       int64     `json:"count"`
	PageCount   int       `json:"page_count"`
	CurrentPage int       `json:"current_page"`
	Users       []UserDTO `json:"users"`
}
