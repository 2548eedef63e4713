package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/denzelpenzel/rewear/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// uniqueViolation is the Postgres error code raised by the users_email_idx index.
const uniqueViolation = "23505"

// UserService handles user-related operations
type UserService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(db *pgxpool.Pool, logger *zap.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger,
	}
}

// CreateUser creates a new user with the starting point balance
func (s *UserService) CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error) {
	user := &models.User{}

	query := `
		INSERT INTO users (id, email, name, password_hash, points)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, name, password_hash, points, is_admin, created_at
	`

	err := s.db.QueryRow(ctx, query, uuid.New(), email, name, passwordHash, models.StartingPoints).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Points,
		&user.IsAdmin,
		&user.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		s.logger.Error("Failed to create user", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("email", email))

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `
		SELECT id, email, name, password_hash, points, is_admin, created_at
		FROM users
		WHERE email = $1
	`, email)
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, `
		SELECT id, email, name, password_hash, points, is_admin, created_at
		FROM users
		WHERE id = $1
	`, userID)
}

func (s *UserService) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}

	err := s.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Points,
		&user.IsAdmin,
		&user.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		s.logger.Error("Failed to fetch user", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return user, nil
}

// PromoteAdmins flags the given accounts as administrators. Admin
// provisioning has no HTTP surface; this runs once at startup from
// the ADMIN_EMAILS configuration.
func (s *UserService) PromoteAdmins(ctx context.Context, emails []string) error {
	if len(emails) == 0 {
		return nil
	}

	tag, err := s.db.Exec(ctx, `UPDATE users SET is_admin = TRUE WHERE email = ANY($1)`, emails)
	if err != nil {
		return fmt.Errorf("failed to promote admins: %w", err)
	}

	s.logger.Info("Admin accounts promoted",
		zap.Int64("updated", tag.RowsAffected()),
		zap.Int("configured", len(emails)))

	return nil
}

// ToUserResponse converts User to UserResponse (removes sensitive data)
func (s *UserService) ToUserResponse(user *models.User) *models.UserResponse {
	return &models.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Points:    user.Points,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}
}
