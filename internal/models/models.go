package models

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleCreator  Role = "creator"
	RoleConsumer Role = "consumer"
)

// ParseRole accepts only the two known roles, case-insensitively.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleCreator:
		return RoleCreator, nil
	case RoleConsumer:
		return RoleConsumer, nil
	}
	return "", fmt.Errorf("unknown role %q", value)
}

func (r Role) CanUpload() bool {
	return r == RoleCreator
}

type Account struct {
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type Post struct {
	ID            int64     `json:"id" db:"id"`
	OwnerUsername string    `json:"ownerUsername" db:"owner_username"`
	MediaLocation string    `json:"mediaLocation" db:"media_location"`
	Caption       string    `json:"caption,omitempty" db:"caption"`
	Title         string    `json:"title,omitempty" db:"title"`
	Location      string    `json:"location,omitempty" db:"location"`
	People        string    `json:"people,omitempty" db:"people"`
	LikeCount     int64     `json:"likeCount" db:"like_count"`
	Comments      []Comment `json:"comments" db:"-"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

type Comment struct {
	ID             int64     `json:"-" db:"id"`
	PostID         int64     `json:"-" db:"post_id"`
	AuthorUsername string    `json:"author" db:"author_username"`
	Text           string    `json:"text" db:"text"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// Session is the identity bound to an opaque token.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Clone returns a copy whose comment slice is not shared with p.
func (p Post) Clone() Post {
	out := p
	out.Comments = make([]Comment, len(p.Comments))
	copy(out.Comments, p.Comments)
	return out
}
