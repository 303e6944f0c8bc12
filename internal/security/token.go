// Package security holds booking rate limiting and ticket token issuance.
package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ticket Token Policy
//
// Booking confirmations carry a signed HS256 token so the ticket screen can
// display a tamper-evident QR payload. The token is DISPLAY ONLY:
//
//   - It is issued at checkout and embedded in the booking record.
//   - It is never parsed or verified by any server endpoint; validation
//     happens at the gate by the transit operator's own scanners.
//   - Expiry is 24 hours from issuance, matching single-journey validity.
//
// Because nothing server-side consumes the token, key rotation only affects
// tickets issued after the rotation.

// TicketTokenExpiry is how long a ticket token stays valid after issuance.
const TicketTokenExpiry = 24 * time.Hour

// TicketClaims represents the claims embedded in a ticket token.
type TicketClaims struct {
	jwt.RegisteredClaims

	// BookingID identifies the booking the ticket belongs to.
	BookingID string `json:"bid"`

	// UserID is the booking owner.
	UserID string `json:"uid"`
}

// TokenService issues signed ticket tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	clock      func() time.Time
}

// TokenConfig holds configuration for the token service.
type TokenConfig struct {
	// SigningKey is the secret key used to sign ticket tokens.
	SigningKey string

	// Issuer is the issuer claim (e.g., "omniroute-transit").
	Issuer string

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// NewTokenService creates a new ticket token service.
func NewTokenService(cfg TokenConfig) *TokenService {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		clock:      clock,
	}
}

// IssueTicketToken creates a signed token for the given booking.
func (s *TokenService) IssueTicketToken(bookingID, userID string) (string, error) {
	now := s.clock()

	claims := TicketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TicketTokenExpiry)),
		},
		BookingID: bookingID,
		UserID:    userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing ticket token: %w", err)
	}
	return tokenString, nil
}
