package auth

import (
	"context"
	"errors"
	"testing"
)

func TestAuthenticate_Success(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	seeded := seedUser(t, db, "carol", RoleAdmin)

	user, err := Authenticate(context.Background(), repo, "carol", "correct horse battery staple")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("ID = %q, want %q", user.ID, seeded.ID)
	}
	if user.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", user.Role, RoleAdmin)
	}
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, "carol", RoleUser)

	_, err := Authenticate(context.Background(), repo, "carol", "not the password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	_, err := Authenticate(context.Background(), repo, "nobody", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	u := seedUser(t, db, "carol", RoleUser)

	u.IsActive = false
	if err := repo.Update(context.Background(), u); err != nil {
		t.Fatalf("deactivating user: %v", err)
	}

	_, err := Authenticate(context.Background(), repo, "carol", "correct horse battery staple")
	if !errors.Is(err, ErrUserInactive) {
		t.Errorf("Authenticate() error = %v, want ErrUserInactive", err)
	}
}
