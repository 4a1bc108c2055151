package auth

import (
	"context"
	"testing"
)

func TestSeedOwner_CreatesOnEmptyDB(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	password, err := SeedOwner(context.Background(), repo, discardLogger())
	if err != nil {
		t.Fatalf("SeedOwner() error = %v", err)
	}
	if password == "" {
		t.Fatal("SeedOwner() should return the generated password")
	}

	owner, err := repo.GetByUsername(context.Background(), "owner")
	if err != nil {
		t.Fatalf("GetByUsername(owner) error = %v", err)
	}
	if owner.Role != RoleOwner {
		t.Errorf("Role = %q, want %q", owner.Role, RoleOwner)
	}
	if !owner.IsActive {
		t.Error("seed owner should be active")
	}

	ok, err := VerifyPassword(password, owner.PasswordHash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("generated password should verify against stored hash")
	}
}

func TestSeedOwner_SkipsWhenUsersExist(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	seedUser(t, db, "existing", RoleAdmin)

	password, err := SeedOwner(context.Background(), repo, discardLogger())
	if err != nil {
		t.Fatalf("SeedOwner() error = %v", err)
	}
	if password != "" {
		t.Error("SeedOwner() should return an empty password when users exist")
	}

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}
