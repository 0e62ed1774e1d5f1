package services

import (
	"errors"
	"time"

	"ecoverse/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	ID   string      `json:"id"`
	Name string      `json:"name,omitempty"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Authentication signs and checks the session tokens that carry a user's
// {id, role}. Issuing them to real users is the login layer's job.
type Authentication struct {
	secret string
}

func NewAuthentication(secret string) (*Authentication, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Authentication{secret}, nil
}

// CreateToken signs a token for identity. A zero ttl gives a token that never expires.
func (authentication *Authentication) CreateToken(identity models.Identity, name string, ttl time.Duration) (string, error) {
	if identity.Role == "" {
		identity.Role = models.RoleUser
	}

	claims := CustomClaims{
		ID:   identity.UserID,
		Name: name,
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  identity.UserID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(authentication.secret))
}

// Validate returns the identity and display name carried by token.
func (authentication *Authentication) Validate(token string) (*models.Identity, string, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		return []byte(authentication.secret), nil
	}

	jwtToken, err := jwt.ParseWithClaims(token, &CustomClaims{}, keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, "", err
	}

	claims, ok := jwtToken.Claims.(*CustomClaims)
	if !ok || claims.ID == "" {
		return nil, "", errors.New("invalid token claims")
	}

	switch claims.Role {
	case models.RoleUser, models.RoleAdmin:
	default:
		return nil, "", errors.New("invalid token role")
	}

	return &models.Identity{UserID: claims.ID, Role: claims.Role}, claims.Name, nil
}
