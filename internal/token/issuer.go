package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/showgate/ticketd/internal/domain"
)

var (
	ErrInvalidToken  = errors.New("invalid verification token")
	ErrTokenMismatch = errors.New("verification token does not match ticket")
)

// Claims binds a verification token to one ticket. The token proves
// possession of the ticket at the gate; it grants nothing by itself and
// verification still checks ticket status and the event window.
type Claims struct {
	TicketID string `json:"ticket_id"`
	Code     string `json:"code"`
	EventID  string `json:"event_id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies ticket verification tokens
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer. TTL bounds how long an issued token stays
// presentable; zero means tokens never expire on their own.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: token secret is required", domain.ErrConfiguration)
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token bound to the ticket's identity
func (i *Issuer) Issue(t *domain.Ticket, now time.Time) (string, error) {
	claims := Claims{
		TicketID: t.ID,
		Code:     t.Code,
		EventID:  t.EventID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  t.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign verification token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and that it was issued for the given
// ticket. There is no bypass: every token goes through the same check.
func (i *Issuer) Verify(tokenString string, t *domain.Ticket) error {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	if claims.TicketID != t.ID || claims.Code != t.Code || claims.EventID != t.EventID {
		return ErrTokenMismatch
	}
	return nil
}
