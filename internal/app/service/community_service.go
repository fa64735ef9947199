package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"codeprep/internal/app/access"
	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/domain/repository"
	"codeprep/internal/platform/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CommunityService struct {
	repo     repository.CommunityRepository
	userRepo repository.UserRepository
	tx       database.Transactor
	postTTL  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewCommunityService(
	repo repository.CommunityRepository,
	userRepo repository.UserRepository,
	tx database.Transactor,
	postTTL time.Duration,
	logger *zap.Logger,
) *CommunityService {
	return &CommunityService{
		repo:     repo,
		userRepo: userRepo,
		tx:       tx,
		postTTL:  postTTL,
		logger:   logger,
		now:      time.Now,
	}
}

type CreatePostRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Content     json.RawMessage `json:"content" validate:"required"` // string or array of blocks
	Topic       string          `json:"topic" validate:"max=50"`
	IsAnonymous bool            `json:"is_anonymous"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type VoteRequest struct {
	VoteType string `json:"vote_type" validate:"required,oneof=upvote downvote none"`
}

type ListPostsQuery struct {
	Topic    string
	Page     int
	PageSize int
}

type PostPage struct {
	Posts    []model.Post `json:"posts"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

func validatePostContent(raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '"':
			var s string
			if err := json.Unmarshal(trimmed, &s); err == nil && strings.TrimSpace(s) != "" {
				return nil
			}
		case '[':
			var blocks []json.RawMessage
			if err := json.Unmarshal(trimmed, &blocks); err == nil && len(blocks) > 0 {
				return nil
			}
		}
	}
	return fmt.Errorf("content must be a non-empty string or array of blocks: %w", common.ErrValidation)
}

// present hides the author of anonymous posts and marks ownership for the
// viewer. Ownership checks use the stored row, never the presented one.
func present(post *model.Post, viewerID string) {
	post.IsOwner = viewerID != "" && post.UserID == viewerID
	if post.IsAnonymous {
		post.Username = model.AnonymousUsername
		post.UserID = ""
	}
	if post.UserVote == "" {
		post.UserVote = model.VoteNone
	}
}

func (s *CommunityService) CreatePost(ctx context.Context, p access.Principal, req CreatePostRequest) (*model.Post, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	if err := validatePostContent(req.Content); err != nil {
		return nil, err
	}
	author, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author: %w", err)
	}

	now := s.now().UTC()
	post := &model.Post{
		ID:          uuid.NewString(),
		UserID:      author.ID,
		Username:    author.Username,
		Title:       req.Title,
		Content:     json.RawMessage(bytes.TrimSpace(req.Content)),
		Topic:       strings.ToLower(strings.TrimSpace(req.Topic)),
		IsAnonymous: req.IsAnonymous,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.postTTL),
	}
	if post.Topic == "" {
		post.Topic = "general"
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	present(post, p.UserID)
	return post, nil
}

// ListPosts is public. Expired posts are not listed.
func (s *CommunityService) ListPosts(ctx context.Context, p access.Principal, q ListPostsQuery) (*PostPage, error) {
	page, pageSize := q.Page, q.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	filter := model.PostFilter{
		Topic:  strings.ToLower(strings.TrimSpace(q.Topic)),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	posts, total, err := s.repo.ListPosts(ctx, filter, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	for i := range posts {
		present(&posts[i], p.UserID)
	}
	return &PostPage{Posts: posts, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *CommunityService) findPost(ctx context.Context, id, viewerID string) (*model.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	return s.repo.FindPost(ctx, id, viewerID)
}

func (s *CommunityService) GetPost(ctx context.Context, p access.Principal, id string) (*model.Post, error) {
	post, err := s.findPost(ctx, id, p.UserID)
	if err != nil {
		return nil, err
	}
	present(post, p.UserID)
	return post, nil
}

// DeletePost is allowed for the author only; anyone else gets 403.
func (s *CommunityService) DeletePost(ctx context.Context, p access.Principal, id string) error {
	if err := access.RequireUser(p); err != nil {
		return err
	}
	post, err := s.findPost(ctx, id, p.UserID)
	if err != nil {
		return err
	}
	if err := access.RequireOwner(p, post.UserID); err != nil {
		return err
	}
	if err := s.repo.DeletePost(ctx, post.ID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	s.logger.Info("post deleted", zap.String("post_id", post.ID), zap.String("user_id", p.UserID))
	return nil
}

func (s *CommunityService) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	post, err := s.findPost(ctx, postID, "")
	if err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, post.ID)
}

func (s *CommunityService) CreateComment(ctx context.Context, p access.Principal, postID string, req CreateCommentRequest) (*model.Comment, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	req.Content = strings.TrimSpace(req.Content)
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	post, err := s.findPost(ctx, postID, p.UserID)
	if err != nil {
		return nil, err
	}
	author, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author: %w", err)
	}

	comment := &model.Comment{
		ID:       uuid.NewString(),
		PostID:   post.ID,
		UserID:   author.ID,
		Username: author.Username,
		Content:  req.Content,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

func (s *CommunityService) DeleteComment(ctx context.Context, p access.Principal, id string) error {
	if err := access.RequireUser(p); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrNotFound
	}
	comment, err := s.repo.FindComment(ctx, id)
	if err != nil {
		return err
	}
	if err := access.RequireOwner(p, comment.UserID); err != nil {
		return err
	}
	return s.repo.DeleteComment(ctx, comment.ID)
}

// Vote sets, changes or (with "none") removes the caller's vote and returns
// the recomputed tally from the same transaction.
func (s *CommunityService) Vote(ctx context.Context, p access.Principal, postID string, req VoteRequest) (*model.VoteTally, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	post, err := s.findPost(ctx, postID, p.UserID)
	if err != nil {
		return nil, err
	}

	var tally *model.VoteTally
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		if req.VoteType == model.VoteNone {
			err = s.repo.DeleteVote(ctx, tx, post.ID, p.UserID)
		} else {
			err = s.repo.UpsertVote(ctx, tx, post.ID, p.UserID, req.VoteType)
		}
		if err != nil {
			return err
		}
		tally, err = s.repo.Tally(ctx, tx, post.ID, p.UserID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record vote: %w", err)
	}
	return tally, nil
}
