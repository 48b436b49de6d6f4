package services

import (
	"context"
	"errors"
	"time"

	"github.com/dfsouza/patrimonio-api/internal/config"
	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles authentication. Its only contract with the core
// is producing the actor (role + campus) every scoped operation needs.
// All credentials are bcrypt-hashed, admin and technician alike.
type AuthService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{userRepo: userRepo, cfg: cfg}
}

// LoginResult represents the result of a login attempt
type LoginResult struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// Login authenticates a user and returns a signed token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, errors.New("credenciais inválidas")
	}
	if !user.IsActive() {
		return nil, errors.New("conta inativa")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.EncryptedPassword), []byte(password)); err != nil {
		return nil, errors.New("credenciais inválidas")
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, errors.New("erro ao gerar token")
	}

	return &LoginResult{Token: token, User: user.ToResponse()}, nil
}

// Refresh re-issues a token for the bearer of a still-valid one
func (s *AuthService) Refresh(ctx context.Context, tokenString string) (*LoginResult, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("método de assinatura inválido")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.New("token inválido")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("token inválido")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, errors.New("token inválido")
	}

	user, err := s.userRepo.FindByID(ctx, uint(userID))
	if err != nil {
		return nil, errors.New("usuário não encontrado")
	}
	if !user.IsActive() {
		return nil, errors.New("conta inativa")
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, errors.New("erro ao gerar token")
	}
	return &LoginResult{Token: token, User: user.ToResponse()}, nil
}

// generateJWT creates a new JWT token for a user. The campus claim is
// how the scope filter travels between requests.
func (s *AuthService) generateJWT(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	if user.CampusID != nil {
		claims["campus_id"] = *user.CampusID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// VerifyPassword compares a password with a hash
func VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
