package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by an interview token. The token binds a websocket
// connection to the interview descriptor created via the HTTP API.
type Claims struct {
	InterviewID string `json:"interview_id"`
	jwt.RegisteredClaims
}

// Issuer signs and validates interview tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates a token issuer with the given HS256 secret.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// GenerateInterviewToken issues a token for one created interview.
func (i *Issuer) GenerateInterviewToken(interviewID string) (string, error) {
	claims := &Claims{
		InterviewID: interviewID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ValidateToken validates a token and returns its claims.
func (i *Issuer) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}
