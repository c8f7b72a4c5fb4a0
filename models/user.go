package models

import "time"

// User represents an account in the system
type User struct {
	ID               string    `json:"_id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Password         string    `json:"-"` // Never send password in JSON
	IsAvatarImageSet bool      `json:"isAvatarImageSet"`
	AvatarImage      string    `json:"avatarImage"`
	Online           bool      `json:"online"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Public returns a copy of the user with the password hash cleared
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Password = ""
	return &out
}
