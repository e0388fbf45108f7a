package service

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/identity"
	"bitwise74/rating-api/internal/model"
	"bitwise74/rating-api/pkg/security"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const codeSubject = "Your confirmation code"

// AuthService runs passwordless signup and the code for token exchange.
type AuthService struct {
	users  *identity.Registry
	codes  *security.ConfirmationCodes
	tokens *security.AccessTokens
	mailer Mailer
	now    func() time.Time
}

func NewAuthService(users *identity.Registry, codes *security.ConfirmationCodes, tokens *security.AccessTokens, mailer Mailer) *AuthService {
	return &AuthService{
		users:  users,
		codes:  codes,
		tokens: tokens,
		mailer: mailer,
		now:    time.Now,
	}
}

// Signup creates the user or finds the existing one with the same username
// and email, then mails a fresh confirmation code. Calling it again resends.
func (s *AuthService) Signup(ctx context.Context, username, email string) (*model.User, error) {
	u, isNew, err := s.users.CreateOrFetch(ctx, username, email)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Hi %s,\n\nyour confirmation code is:\n\n%s\n\nExchange it for an access token at /api/v1/auth/token.", u.Username, s.codes.Issue(u))

	if err := s.mailer.Send(ctx, u.Email, codeSubject, body); err != nil {
		zap.L().Error("Failed to send confirmation code", zap.Error(err), zap.String("userID", u.ID))
		return nil, apperr.Unavailable("failed to deliver confirmation code", err)
	}

	zap.L().Debug("Confirmation code sent", zap.String("userID", u.ID), zap.Bool("new", isNew))
	return u, nil
}

// Exchange trades a confirmation code for an access token. The login is
// recorded so the same code can't be exchanged twice, concurrently included.
func (s *AuthService) Exchange(ctx context.Context, username, code string) (string, time.Time, error) {
	if username == "" {
		return "", time.Time{}, apperr.Validation("username", "no username provided")
	}

	if code == "" {
		return "", time.Time{}, apperr.Validation("confirmation_code", "no confirmation code provided")
	}

	u, err := s.users.Get(ctx, username)
	if err != nil {
		return "", time.Time{}, err
	}

	if !s.codes.Verify(u, code) {
		return "", time.Time{}, apperr.InvalidCode()
	}

	// Recorded first, a racing exchange of the same code loses here and gets
	// no token
	if err := s.users.MarkLogin(ctx, u, s.now()); err != nil {
		return "", time.Time{}, err
	}

	return s.tokens.Mint(u.ID)
}
