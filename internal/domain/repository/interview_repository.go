package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeprep/internal/common"
	"codeprep/internal/domain/model"
)

type InterviewRepository interface {
	Create(ctx context.Context, interview *model.Interview) error
	FindByID(ctx context.Context, id string) (*model.Interview, error)
	ListByUser(ctx context.Context, userID string) ([]model.Interview, error)
	Update(ctx context.Context, id string, patch model.InterviewPatch) (*model.Interview, error)
}

const interviewColumns = `id, user_id, position, company_name, job_description, interview_type, difficulty,
	duration_minutes, questions, interviewer_name, scheduled_at, status, feedback, rating, created_at, updated_at`

type pgInterviewRepository struct {
	db *sql.DB
}

func NewPgInterviewRepository(db *sql.DB) InterviewRepository {
	return &pgInterviewRepository{db: db}
}

func scanInterview(row rowScanner) (*model.Interview, error) {
	iv := &model.Interview{}
	var (
		questions []byte
		scheduled sql.NullTime
		feedback  sql.NullString
		rating    sql.NullInt32
	)
	err := row.Scan(&iv.ID, &iv.UserID, &iv.Position, &iv.CompanyName, &iv.JobDescription, &iv.InterviewType,
		&iv.Difficulty, &iv.DurationMinutes, &questions, &iv.InterviewerName, &scheduled, &iv.Status,
		&feedback, &rating, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(questions, &iv.Questions); err != nil {
		return nil, fmt.Errorf("decode interview %s questions: %w", iv.ID, err)
	}
	if scheduled.Valid {
		iv.ScheduledAt = &scheduled.Time
	}
	if feedback.Valid {
		iv.Feedback = &feedback.String
	}
	if rating.Valid {
		v := int(rating.Int32)
		iv.Rating = &v
	}
	return iv, nil
}

func (r *pgInterviewRepository) Create(ctx context.Context, iv *model.Interview) error {
	questions, err := jsonArg(iv.Questions, "[]")
	if err != nil {
		return fmt.Errorf("pgInterviewRepository.Create encode: %w", err)
	}
	query := `INSERT INTO interviews (id, user_id, position, company_name, job_description, interview_type,
	              difficulty, duration_minutes, questions, interviewer_name, scheduled_at, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		iv.ID, iv.UserID, iv.Position, iv.CompanyName, iv.JobDescription, iv.InterviewType,
		iv.Difficulty, iv.DurationMinutes, questions, iv.InterviewerName, nullableTime(iv.ScheduledAt), iv.Status,
	).Scan(&iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("interview already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgInterviewRepository.Create: %w", err)
	}
	return nil
}

func (r *pgInterviewRepository) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews WHERE id = $1`
	iv, err := scanInterview(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgInterviewRepository.FindByID: %w", err)
	}
	return iv, nil
}

func (r *pgInterviewRepository) ListByUser(ctx context.Context, userID string) ([]model.Interview, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgInterviewRepository.ListByUser query: %w", err)
	}
	defer rows.Close()

	out := []model.Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("pgInterviewRepository.ListByUser scan: %w", err)
		}
		out = append(out, *iv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgInterviewRepository.ListByUser rows.Err: %w", err)
	}
	return out, nil
}

// Update applies the non-nil fields. Feedback is write-once: an existing
// value is kept even if a new one is supplied.
func (r *pgInterviewRepository) Update(ctx context.Context, id string, patch model.InterviewPatch) (*model.Interview, error) {
	var b updateBuilder
	if patch.Status != nil {
		b.set("status", *patch.Status)
	}
	if patch.ScheduledAt != nil {
		b.set("scheduled_at", *patch.ScheduledAt)
	}
	if patch.Rating != nil {
		b.set("rating", *patch.Rating)
	}
	if patch.Feedback != nil {
		b.args = append(b.args, *patch.Feedback)
		b.sets = append(b.sets, fmt.Sprintf("feedback = COALESCE(feedback, $%d)", len(b.args)))
	}
	if b.empty() {
		return r.FindByID(ctx, id)
	}

	query, args := b.build("interviews", id, interviewColumns)
	iv, err := scanInterview(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgInterviewRepository.Update: %w", err)
	}
	return iv, nil
}
