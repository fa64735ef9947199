package model

import (
	"encoding/json"
	"time"
)

const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
	VoteNone = "none"

	AnonymousUsername = "Anonymous"
)

func ValidVoteType(v string) bool {
	return v == VoteUp || v == VoteDown
}

// Post.Username and Comment.Username are snapshots taken when the row was
// written; renaming a user does not rewrite them.
type Post struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id,omitempty"`
	Username     string          `json:"username"`
	Title        string          `json:"title"`
	Content      json.RawMessage `json:"content"` // string or array of blocks
	Topic        string          `json:"topic"`
	IsAnonymous  bool            `json:"is_anonymous"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
	Votes        int             `json:"votes"`
	UserVote     string          `json:"user_vote"`
	CommentCount int             `json:"comment_count"`
	IsOwner      bool            `json:"is_owner"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type VoteTally struct {
	PostID   string `json:"post_id"`
	Votes    int    `json:"votes"`
	UserVote string `json:"user_vote"`
}

type PostFilter struct {
	Topic  string
	Limit  int
	Offset int
}
