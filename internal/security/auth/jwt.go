package auth

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidHeader is returned for Authorization headers that are not "Bearer <token>"
var ErrInvalidHeader = errors.New("invalid authorization header")

// Claims identify the household and member a token acts for
type Claims struct {
	HouseholdID string `json:"household_id"`
	MemberID    string `json:"member_id"`
	Username    string `json:"username"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret string
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret, issuer string) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "tastebook"
	}
	return &TokenManager{secret: secret, issuer: issuer, now: time.Now}
}

func (tm *TokenManager) GenerateToken(householdID, memberID, username string, expiresIn time.Duration) (string, error) {
	if householdID == "" || memberID == "" {
		return "", errors.New("household_id and member_id required")
	}
	now := tm.now()
	claims := Claims{
		HouseholdID: householdID,
		MemberID:    memberID,
		Username:    username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	}, jwt.WithIssuer(tm.issuer), jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.HouseholdID == "" || claims.MemberID == "" {
		return nil, errors.New("token carries no household")
	}
	return claims, nil
}

func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidHeader
	}
	return parts[1], nil
}
