package models

import (
	"time"
)

// User is the per-account record holding the favorites and ignore lists.
// The document id is the authentication provider's user id.
type User struct {
	ID         string    `bson:"_id" json:"id"`
	Name       string    `bson:"name,omitempty" json:"name,omitempty"`
	Email      string    `bson:"email,omitempty" json:"email,omitempty"`
	PhotoURL   string    `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	Favorites  []string  `bson:"favorites,omitempty" json:"favorites"`
	IgnoreList []string  `bson:"ignoreList,omitempty" json:"ignoreList"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

type UpsertUserRequest struct {
	Name     string `json:"name" binding:"omitempty,max=100"`
	Email    string `json:"email" binding:"omitempty,email"`
	PhotoURL string `json:"photoUrl" binding:"omitempty,url"`
}
