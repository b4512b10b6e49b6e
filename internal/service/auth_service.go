package service

import (
	"errors"
	"time"

	"divorcerisk/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles clinician authentication
type AuthService struct {
	username  string
	password  string
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(username, password, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		username:  username,
		password:  password,
		jwtSecret: []byte(secret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Login validates credentials and returns a signed clinician token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.username || password != s.password {
		return nil, ErrInvalidCredentials
	}

	clinicianID := ClinicianIDFor(username)
	token, err := s.IssueToken(clinicianID)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:       token,
		ClinicianID: clinicianID,
	}, nil
}

// ClinicianIDFor derives the stable clinician id of a login name
func ClinicianIDFor(username string) string {
	return "clin_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(username)).String()[:8]
}

// IssueToken signs a token for an existing clinician id
func (s *AuthService) IssueToken(clinicianID string) (string, error) {
	now := s.now()
	claims := &model.ClinicianClaims{
		ClinicianID: clinicianID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a clinician JWT and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*model.ClinicianClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.ClinicianClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.ClinicianClaims)
	if !ok || !token.Valid || claims.ClinicianID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
