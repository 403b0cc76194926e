package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Davshiv20/PingPollz/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const (
	accessTokenDuration  = 1 * time.Hour
	refreshTokenDuration = 30 * 24 * time.Hour
)

// AuthService issues and validates presenter tokens. There is a single
// presenter identity per deployment, guarded by a passcode; participants are
// deliberately unauthenticated.
type AuthService struct {
	passcodeHash []byte
	jwtSecret    []byte
}

func NewAuthService(passcode, jwtSecret string) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash passcode: %w", err)
	}
	return &AuthService{passcodeHash: hash, jwtSecret: []byte(jwtSecret)}, nil
}

// Login exchanges the presenter passcode for a token pair.
func (s *AuthService) Login(passcode string) (*model.TokenPair, error) {
	if err := bcrypt.CompareHashAndPassword(s.passcodeHash, []byte(passcode)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.generateTokenPair()
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *AuthService) Refresh(refreshToken string) (*model.TokenPair, error) {
	if _, err := s.parse(refreshToken, "refresh"); err != nil {
		return nil, err
	}
	return s.generateTokenPair()
}

// ValidateAccessToken checks an access token and returns the role claim.
func (s *AuthService) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parse(token, "access")
	if err != nil {
		return "", err
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return "", ErrInvalidToken
	}
	return role, nil
}

func (s *AuthService) generateTokenPair() (*model.TokenPair, error) {
	now := time.Now()

	access, err := s.sign(jwt.MapClaims{
		"sub":  "presenter",
		"role": model.RolePresenter,
		"typ":  "access",
		"iat":  now.Unix(),
		"exp":  now.Add(accessTokenDuration).Unix(),
	})
	if err != nil {
		return nil, err
	}

	refresh, err := s.sign(jwt.MapClaims{
		"sub": "presenter",
		"typ": "refresh",
		"iat": now.Unix(),
		"exp": now.Add(refreshTokenDuration).Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *AuthService) parse(tokenString, wantTyp string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != wantTyp {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
