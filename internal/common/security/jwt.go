package security

import (
	"errors"
	"time"

	"codeprep/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "codeprep"
	claimRole   = "role"
)

var TokenAuth *jwtauth.JWTAuth

var ErrInvalidClaims = errors.New("token claims are missing or malformed")

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken issues a session token carrying the user id as "sub" and the
// role used by the access gate.
func GenerateToken(userID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     userID,
		claimRole: role,
		"iss":     tokenIssuer,
		"iat":     now.Unix(),
		"exp":     now.Add(config.AppConfig.JWTExp).Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// SubjectFromClaims returns the user id and role of a verified token.
func SubjectFromClaims(claims map[string]interface{}) (userID, role string, err error) {
	if iss, _ := claims["iss"].(string); iss != tokenIssuer {
		return "", "", ErrInvalidClaims
	}
	userID, _ = claims["sub"].(string)
	role, _ = claims[claimRole].(string)
	if userID == "" || role == "" {
		return "", "", ErrInvalidClaims
	}
	return userID, role, nil
}
