package authentication

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/phloxxx/user-management-system/internal/account"
)

type AccessClaims struct {
	AccountID uint         `json:"id"`
	Role      account.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs an HS256 token carrying the account id and role.
func IssueAccessToken(accountID uint, role account.Role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(accountID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseAccessToken(tokenString, secret string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*AccessClaims); ok && token.Valid {
		if claims.AccountID == 0 {
			return nil, errors.New("access token has no account id")
		}
		return claims, nil
	}
	return nil, errors.New("invalid access token")
}
