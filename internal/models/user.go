package models

import "time"

// User is the canonical identity record. The full record is cached under the
// "currentUser" key after login and under "userProfile:<username>" for
// visited profiles.
type User struct {
	ID        ID        `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl"`
	Bio       string    `json:"bio"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is a user record enriched with the relationship counters shown on
// profile pages.
type Profile struct {
	User
	FollowerCount  int `json:"followerCount"`
	FollowingCount int `json:"followingCount"`
	PostCount      int `json:"postCount"`
}
