package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/platform/database"
)

type CommunityRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	FindPost(ctx context.Context, id, viewerID string) (*model.Post, error)
	ListPosts(ctx context.Context, filter model.PostFilter, viewerID string) ([]model.Post, int, error)
	DeletePost(ctx context.Context, id string) error
	DeleteExpiredPosts(ctx context.Context, now time.Time) (int64, error)

	CreateComment(ctx context.Context, comment *model.Comment) error
	FindComment(ctx context.Context, id string) (*model.Comment, error)
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	UpsertVote(ctx context.Context, tx *sql.Tx, postID, userID, voteType string) error
	DeleteVote(ctx context.Context, tx *sql.Tx, postID, userID string) error
	Tally(ctx context.Context, tx *sql.Tx, postID, userID string) (*model.VoteTally, error)
}

type pgCommunityRepository struct {
	db *sql.DB
}

func NewPgCommunityRepository(db *sql.DB) CommunityRepository {
	return &pgCommunityRepository{db: db}
}

// postSelect computes the tally, the viewer's vote and the comment count in
// the same statement as the posts themselves. $1 is the viewer id or NULL.
const postSelect = `
	SELECT p.id, p.user_id, p.username, p.title, p.content, p.topic, p.is_anonymous, p.created_at, p.expires_at,
	       COALESCE(v.score, 0), COALESCE(mv.vote_type, 'none'), COALESCE(c.cnt, 0)
	FROM community_posts p
	LEFT JOIN (
	    SELECT post_id, SUM(CASE WHEN vote_type = 'upvote' THEN 1 ELSE -1 END) AS score
	    FROM community_votes GROUP BY post_id
	) v ON v.post_id = p.id
	LEFT JOIN community_votes mv ON mv.post_id = p.id AND mv.user_id = $1
	LEFT JOIN (
	    SELECT post_id, COUNT(*) AS cnt FROM community_comments GROUP BY post_id
	) c ON c.post_id = p.id`

func scanPost(row rowScanner) (*model.Post, error) {
	p := &model.Post{}
	var content []byte
	err := row.Scan(&p.ID, &p.UserID, &p.Username, &p.Title, &content, &p.Topic, &p.IsAnonymous,
		&p.CreatedAt, &p.ExpiresAt, &p.Votes, &p.UserVote, &p.CommentCount)
	if err != nil {
		return nil, err
	}
	p.Content = append([]byte(nil), content...)
	return p, nil
}

func (r *pgCommunityRepository) CreatePost(ctx context.Context, p *model.Post) error {
	query := `INSERT INTO community_posts (id, user_id, username, title, content, topic, is_anonymous, created_at, expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.Username, p.Title, []byte(p.Content), p.Topic, p.IsAnonymous, p.CreatedAt, p.ExpiresAt)
	if err != nil {
		return fmt.Errorf("pgCommunityRepository.CreatePost: %w", err)
	}
	p.UserVote = model.VoteNone
	return nil
}

// FindPost treats an expired post as gone even before the purge job removes it.
func (r *pgCommunityRepository) FindPost(ctx context.Context, id, viewerID string) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $2 AND p.expires_at > CURRENT_TIMESTAMP`, nullable(viewerID), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCommunityRepository.FindPost: %w", err)
	}
	return p, nil
}

func (r *pgCommunityRepository) ListPosts(ctx context.Context, filter model.PostFilter, viewerID string) ([]model.Post, int, error) {
	where := ` WHERE p.expires_at > CURRENT_TIMESTAMP`
	countArgs := []any{}
	if filter.Topic != "" {
		countArgs = append(countArgs, filter.Topic)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM community_posts p` + where
	if filter.Topic != "" {
		countQuery += ` AND p.topic = $1`
	}
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgCommunityRepository.ListPosts count: %w", err)
	}

	args := []any{nullable(viewerID)}
	query := postSelect + where
	if filter.Topic != "" {
		args = append(args, filter.Topic)
		query += fmt.Sprintf(` AND p.topic = $%d`, len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY p.created_at DESC, p.id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgCommunityRepository.ListPosts query: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("pgCommunityRepository.ListPosts scan: %w", err)
		}
		posts = append(posts, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgCommunityRepository.ListPosts rows.Err: %w", err)
	}
	return posts, total, nil
}

func (r *pgCommunityRepository) DeletePost(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM community_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgCommunityRepository.DeletePost: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCommunityRepository) DeleteExpiredPosts(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM community_posts WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("pgCommunityRepository.DeleteExpiredPosts: %w", err)
	}
	return res.RowsAffected()
}

func (r *pgCommunityRepository) CreateComment(ctx context.Context, c *model.Comment) error {
	query := `INSERT INTO community_comments (id, post_id, user_id, username, content)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.PostID, c.UserID, c.Username, c.Content).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgCommunityRepository.CreateComment: %w", err)
	}
	return nil
}

func (r *pgCommunityRepository) FindComment(ctx context.Context, id string) (*model.Comment, error) {
	query := `SELECT id, post_id, user_id, username, content, created_at FROM community_comments WHERE id = $1`
	c := &model.Comment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.PostID, &c.UserID, &c.Username, &c.Content, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCommunityRepository.FindComment: %w", err)
	}
	return c, nil
}

func (r *pgCommunityRepository) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	query := `SELECT id, post_id, user_id, username, content, created_at
	          FROM community_comments WHERE post_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("pgCommunityRepository.ListComments query: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Username, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgCommunityRepository.ListComments scan: %w", err)
		}
		comments = append(comments, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCommunityRepository.ListComments rows.Err: %w", err)
	}
	return comments, nil
}

func (r *pgCommunityRepository) DeleteComment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM community_comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgCommunityRepository.DeleteComment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// UpsertVote relies on the (post_id, user_id) unique constraint, so a second
// vote by the same user replaces the first instead of adding a row.
func (r *pgCommunityRepository) UpsertVote(ctx context.Context, tx *sql.Tx, postID, userID, voteType string) error {
	query := `INSERT INTO community_votes (post_id, user_id, vote_type)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (post_id, user_id)
	          DO UPDATE SET vote_type = EXCLUDED.vote_type, updated_at = CURRENT_TIMESTAMP`
	if _, err := database.Conn(r.db, tx).ExecContext(ctx, query, postID, userID, voteType); err != nil {
		return fmt.Errorf("pgCommunityRepository.UpsertVote: %w", err)
	}
	return nil
}

func (r *pgCommunityRepository) DeleteVote(ctx context.Context, tx *sql.Tx, postID, userID string) error {
	query := `DELETE FROM community_votes WHERE post_id = $1 AND user_id = $2`
	if _, err := database.Conn(r.db, tx).ExecContext(ctx, query, postID, userID); err != nil {
		return fmt.Errorf("pgCommunityRepository.DeleteVote: %w", err)
	}
	return nil
}

// Tally counts only rows of postID.
func (r *pgCommunityRepository) Tally(ctx context.Context, tx *sql.Tx, postID, userID string) (*model.VoteTally, error) {
	query := `SELECT COUNT(*) FILTER (WHERE vote_type = 'upvote') - COUNT(*) FILTER (WHERE vote_type = 'downvote'),
	                 COALESCE(MAX(vote_type) FILTER (WHERE user_id = $2), 'none')
	          FROM community_votes WHERE post_id = $1`
	t := &model.VoteTally{PostID: postID}
	if err := database.Conn(r.db, tx).QueryRowContext(ctx, query, postID, nullable(userID)).Scan(&t.Votes, &t.UserVote); err != nil {
		return nil, fmt.Errorf("pgCommunityRepository.Tally: %w", err)
	}
	return t, nil
}
