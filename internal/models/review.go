package models

import "gorm.io/gorm"

// Review is a rating and comment a user leaves on a store. Reviews are
// write-once: there is no edit or delete path.
type Review struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	StoreID  string `json:"store_id" gorm:"type:varchar(36);index" validate:"required"`
	AuthorID string `json:"author_id" gorm:"type:varchar(36);index" validate:"required"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Text     string `json:"text" gorm:"type:text" validate:"required,max=2000"`

	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`

	gorm.Model `json:"-"`
}
