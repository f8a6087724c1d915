package model

import "strings"

// User is the profile document stored at users/{uid} and mirrored in the local cache.
type User struct {
	UID             string `gorm:"primaryKey;column:uid" json:"uid" firestore:"uid"`
	Email           string `gorm:"index" json:"email" firestore:"email"`
	UserName        string `json:"userName" firestore:"userName"`               // display name
	ProfileImageURL string `json:"profileImageUrl" firestore:"profileImageUrl"` // public URL, empty when unset
	Bio             string `json:"bio" firestore:"bio"`
	FollowersCount  int    `json:"followersCount" firestore:"followersCount"`
	FollowingCount  int    `json:"followingCount" firestore:"followingCount"`
	CreatedAt       int64  `gorm:"index" json:"createdAt" firestore:"createdAt"` // epoch millis, immutable
	LastUpdated     int64  `json:"lastUpdated" firestore:"lastUpdated"`          // epoch millis
}

func (User) TableName() string {
	return "users"
}

// ProfileUpdate is a partial update of a user profile. Nil fields are left untouched.
type ProfileUpdate struct {
	UserName        *string `json:"userName,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty"`
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.UserName == nil && p.Bio == nil && p.ProfileImageURL == nil
}

// Credentials is the login record stored at credentials/{normalized email}.
// It never leaves the backend.
type Credentials struct {
	UID          string `json:"uid" firestore:"uid"`
	Email        string `json:"email" firestore:"email"`
	PasswordHash string `json:"passwordHash" firestore:"passwordHash"`
	CreatedAt    int64  `json:"createdAt" firestore:"createdAt"`
	LastUpdated  int64  `json:"lastUpdated" firestore:"lastUpdated"`
}

// NormalizeEmail is the key used for credential lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
