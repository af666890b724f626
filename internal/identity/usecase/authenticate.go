package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/goerror"
)

// Authenticate resolves a bearer token to its owner and role for the router.
// A token whose user no longer exists does not authenticate.
func (s *Usecase) Authenticate(ctx context.Context, token string) (authtoken.Principal, bool, error) {
	ctx, span := s.startSpan(ctx, "Authenticate")
	defer span.End()

	userID, ok, err := s.tokens.Resolve(ctx, token, s.clock.Now())
	if err != nil || !ok {
		return authtoken.Principal{}, false, err
	}

	user, err := s.repoDB.GetUserByID(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return authtoken.Principal{}, false, nil
	}
	if err != nil {
		return authtoken.Principal{}, false, err
	}

	return authtoken.Principal{UserID: user.ID, Role: user.Role.Ensure().String()}, true, nil
}
