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

type UserRepository interface {
	Create(ctx context.Context, tx *sql.Tx, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id string, update model.UserUpdate) (*model.User, error)
	ActivateSubscription(ctx context.Context, tx *sql.Tx, userID, plan string, expiresAt time.Time) error
	ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error)
}

const userColumns = `id, username, email, hashed_password, auth_provider, role,
	is_subscribed, subscription_plan, subscription_expires_at, created_at, updated_at`

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var expires sql.NullTime
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.AuthProvider, &user.Role,
		&user.IsSubscribed, &user.SubscriptionPlan, &expires, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		user.SubscriptionExpiresAt = &expires.Time
	}
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	query := `INSERT INTO users (id, username, email, hashed_password, auth_provider, role, subscription_plan)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if user.SubscriptionPlan == "" {
		user.SubscriptionPlan = model.PlanFreemium
	}
	_, err := database.Conn(r.db, tx).ExecContext(ctx, query,
		user.ID, user.Username, user.Email, user.HashedPassword, user.AuthProvider, user.Role, user.SubscriptionPlan)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) findOne(ctx context.Context, op, where string, arg any) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.%s: %w", op, err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "FindByEmail", "email", email)
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "FindByUsername", "username", username)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "FindByID", "id", id)
}

func (r *pgUserRepository) Update(ctx context.Context, id string, update model.UserUpdate) (*model.User, error) {
	var b updateBuilder
	if update.Username != nil {
		b.set("username", *update.Username)
	}
	if update.Email != nil {
		b.set("email", *update.Email)
	}
	if b.empty() {
		return r.FindByID(ctx, id)
	}

	query, args := b.build("users", id, userColumns)
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		if common.IsUniqueViolation(err) {
			return nil, fmt.Errorf("username or email already taken: %w", common.ErrConflict)
		}
		return nil, fmt.Errorf("pgUserRepository.Update: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) ActivateSubscription(ctx context.Context, tx *sql.Tx, userID, plan string, expiresAt time.Time) error {
	query := `UPDATE users SET is_subscribed = TRUE, subscription_plan = $1, subscription_expires_at = $2,
	                 updated_at = CURRENT_TIMESTAMP
	          WHERE id = $3`
	res, err := database.Conn(r.db, tx).ExecContext(ctx, query, plan, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("pgUserRepository.ActivateSubscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ExpireSubscriptions clears the flag on every subscription whose expiry has passed.
func (r *pgUserRepository) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE users SET is_subscribed = FALSE, subscription_plan = 'freemium', updated_at = CURRENT_TIMESTAMP
	          WHERE is_subscribed = TRUE AND subscription_expires_at IS NOT NULL AND subscription_expires_at <= $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("pgUserRepository.ExpireSubscriptions: %w", err)
	}
	return res.RowsAffected()
}
