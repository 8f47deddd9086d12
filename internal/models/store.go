package models

import "gorm.io/gorm"

// Tag is a label attached to stores. Tags are shared rows so the tag
// browse page can count usage with a single join.
type Tag struct {
	ID   uint   `json:"-" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;type:varchar(50)" validate:"required,max=50"`
}

// Store represents a restaurant listing.
type Store struct {
	ID          string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string `json:"name" gorm:"type:varchar(100)" validate:"required,min=3,max=100"`
	Slug        string `json:"slug" gorm:"uniqueIndex;type:varchar(120)"` // derived from Name at create time
	Description string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Tags        []Tag  `json:"tags" gorm:"many2many:store_tags"`

	// GeoJSON order: longitude first.
	Lng float64 `json:"lng" validate:"omitempty,longitude"`
	Lat float64 `json:"lat" validate:"omitempty,latitude"`

	// Photo is the generated filename under the public uploads directory,
	// empty when the store has no photo.
	Photo string `json:"photo,omitempty" gorm:"type:varchar(64)"`

	AuthorID string `json:"author_id" gorm:"type:varchar(36);index"`
	Author   *User  `json:"author,omitempty" gorm:"foreignKey:AuthorID"`

	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:StoreID"`

	gorm.Model `json:"-"`
}

// TagNames returns the names of the store's tags.
func (s *Store) TagNames() []string {
	names := make([]string, 0, len(s.Tags))
	for _, t := range s.Tags {
		names = append(names, t.Name)
	}
	return names
}
