package models

import "time"

// Category is a catalog grouping. Categories form a two-level-or-deeper tree
// through ParentID; a root category has ParentID == "".
type Category struct {
	CategoryID  string    `json:"categoryId" bson:"categoryid"`
	Name        string    `json:"name" bson:"name"`
	Slug        string    `json:"slug" bson:"slug"`
	BannerURL   string    `json:"banner_url,omitempty" bson:"banner_url,omitempty"`
	ParentID    string    `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	IsActive    bool      `json:"is_active" bson:"is_active"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`

	// Children is populated by the nested-tree endpoint, never persisted.
	Children []Category `json:"children,omitempty" bson:"-"`
}

func (c *Category) IsParent() bool {
	return c.ParentID == ""
}
