package auth

import (
	"context"
	"errors"
	"testing"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	u := seedUser(t, db, "alice", RoleAdmin)

	if u.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}

	got, err := repo.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "alice" || got.Role != RoleAdmin {
		t.Errorf("GetByID() = %+v, want alice/admin", got)
	}

	got, err = repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByUsername() ID = %q, want %q", got.ID, u.ID)
	}
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, "alice", RoleUser)

	err := repo.Create(context.Background(), &User{
		Username:     "alice",
		DisplayName:  "Other Alice",
		PasswordHash: "x",
		Role:         RoleUser,
		IsActive:     true,
	})
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("Create() error = %v, want ErrUsernameExists", err)
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), "usr_nothere")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	u := seedUser(t, db, "bob", RoleUser)

	u.DisplayName = "Robert"
	u.Role = RoleAdmin
	u.IsActive = false
	if err := repo.Update(context.Background(), u); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.DisplayName != "Robert" || got.Role != RoleAdmin || got.IsActive {
		t.Errorf("Update() not persisted, got %+v", got)
	}
}

func TestUserRepository_UpdateMissing(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	err := repo.Update(context.Background(), &User{ID: "usr_ghost", DisplayName: "Ghost", Role: RoleUser})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Update() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_ListAndCount(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("List() on empty db = %d users, want 0", len(users))
	}

	seedUser(t, db, "alice", RoleOwner)
	seedUser(t, db, "bob", RoleUser)

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	u := seedUser(t, db, "temp", RoleUser)

	if err := repo.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(context.Background(), u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrUserNotFound", err)
	}
	if err := repo.Delete(context.Background(), u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second Delete() error = %v, want ErrUserNotFound", err)
	}
}

func TestSeedOwner(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	password, err := SeedOwner(context.Background(), repo, discardLogger())
	if err != nil {
		t.Fatalf("SeedOwner() error = %v", err)
	}
	if password == "" {
		t.Fatal("SeedOwner() returned empty password on first boot")
	}

	owner, err := repo.GetByUsername(context.Background(), "owner")
	if err != nil {
		t.Fatalf("GetByUsername(owner) error = %v", err)
	}
	if owner.Role != RoleOwner {
		t.Errorf("seed owner role = %q, want owner", owner.Role)
	}

	ok, err := VerifyPassword(password, owner.PasswordHash)
	if err != nil || !ok {
		t.Errorf("seed password does not verify: ok=%v err=%v", ok, err)
	}

	// Second boot must not reseed.
	password, err = SeedOwner(context.Background(), repo, discardLogger())
	if err != nil {
		t.Fatalf("second SeedOwner() error = %v", err)
	}
	if password != "" {
		t.Error("SeedOwner() reseeded with users present")
	}
}
