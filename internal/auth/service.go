package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/avoda-labs/jobboard/backend/internal/db"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
	Phone     string     `json:"phone,omitempty"`
	Region    string     `json:"region,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

type AuthService struct {
	db  *db.DB
	jwt *JWTService
}

func NewAuthService(database *db.DB, jwtService *JWTService) *AuthService {
	return &AuthService{
		db:  database,
		jwt: jwtService,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, fullName, role, phone, region string) (*User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user User
	err = s.db.Pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, full_name, role, phone, region)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, email, full_name, role, phone, region, created_at`,
		email, string(hash), fullName, role, phone, region,
	).Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &user.Phone, &user.Region, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*User, string, string, error) {
	var storedHash string
	var user User
	err := s.db.Pool.QueryRow(ctx,
		`SELECT id, email, full_name, role, phone, region, created_at, password_hash
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &user.Phone, &user.Region, &user.CreatedAt, &storedHash)
	if err != nil {
		return nil, "", "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)); err != nil {
		return nil, "", "", fmt.Errorf("invalid credentials")
	}

	if _, err := s.db.Pool.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, user.ID); err != nil {
		return nil, "", "", fmt.Errorf("failed to update last login: %w", err)
	}

	accessToken, err := s.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &user, accessToken, refreshToken, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwt.ValidateToken(refreshToken)
	if err != nil {
		return "", fmt.Errorf("invalid refresh token: %w", err)
	}

	var email, role string
	err = s.db.Pool.QueryRow(ctx, `SELECT email, role FROM users WHERE id = $1`, claims.UserID).Scan(&email, &role)
	if err != nil {
		return "", fmt.Errorf("user not found")
	}

	accessToken, err := s.jwt.GenerateToken(claims.UserID, email, role)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.Pool.QueryRow(ctx,
		`SELECT id, email, full_name, role, phone, region, created_at, last_login
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &user.Phone, &user.Region, &user.CreatedAt, &user.LastLogin)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}
	return &user, nil
}

// ListUsers returns all users, optionally filtered by role. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, role string) ([]User, error) {
	query := `SELECT id, email, full_name, role, phone, region, created_at, last_login
	          FROM users`
	args := []interface{}{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Phone, &u.Region, &u.CreatedAt, &u.LastLogin); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *AuthService) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
