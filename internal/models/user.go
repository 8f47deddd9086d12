package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name     string `json:"name" gorm:"type:varchar(100)" validate:"required,min=2,max=100"`
	Email    string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password string `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized

	// Password-reset credential. Token is empty when no reset is pending;
	// a pending token is usable only while ResetPasswordExpires is in the
	// future, and both fields are cleared when the password is updated.
	ResetPasswordToken   string     `json:"-" gorm:"type:varchar(64);index"`
	ResetPasswordExpires *time.Time `json:"-"`

	// Hearts is the set of stores the user has favorited.
	Hearts []*Store `json:"hearts,omitempty" gorm:"many2many:user_hearts"`

	gorm.Model `json:"-"`
}

// HeartIDs returns the IDs of the stores in the user's heart set.
func (u *User) HeartIDs() []string {
	ids := make([]string, 0, len(u.Hearts))
	for _, s := range u.Hearts {
		ids = append(ids, s.ID)
	}
	return ids
}

// HasHearted reports whether the store is in the user's heart set.
func (u *User) HasHearted(storeID string) bool {
	for _, s := range u.Hearts {
		if s.ID == storeID {
			return true
		}
	}
	return false
}
