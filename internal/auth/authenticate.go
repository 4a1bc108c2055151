package auth

import (
	"context"
	"errors"
	"fmt"
)

// Authenticate verifies a username/password pair against the user store.
// Unknown usernames and wrong passwords both return ErrInvalidCredentials
// so callers cannot distinguish them.
func Authenticate(ctx context.Context, userRepo UserRepository, username, password string) (*User, error) {
	user, err := userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn comparable time so missing users are not detectable
			// by response latency.
			_, _ = VerifyPassword(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return user, nil
}

// dummyHash is a valid argon2id hash of an unguessable throwaway value,
// used to equalise timing for unknown usernames.
var dummyHash = func() string {
	h, err := HashPassword("timing-equalisation-dummy")
	if err != nil {
		panic(err)
	}
	return h
}()
