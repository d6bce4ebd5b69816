package store

import (
	"context"
	"testing"

	"github.com/erazemk/biblioteca/internal/db"
	"github.com/erazemk/biblioteca/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "bibliotecaria", "hash123", model.RoleLibrarian)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "bibliotecaria" {
		t.Errorf("expected username 'bibliotecaria', got %q", user.Username)
	}
	if user.Role != model.RoleLibrarian {
		t.Errorf("expected role 'librarian', got %q", user.Role)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "bibliotecaria" {
		t.Errorf("expected username 'bibliotecaria', got %q", got.Username)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleAdmin)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("expected alice, got %+v", user)
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestDeleteUserHidesFromListAndLogin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme", "hash", model.RoleLibrarian)
	CreateUser(ctx, database, "keeper", "hash", model.RoleAdmin)

	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	users, _ := ListUsers(ctx, database)
	if len(users) != 1 {
		t.Errorf("expected 1 user after delete, got %d", len(users))
	}
	n, _ := CountUsers(ctx, database)
	if n != 1 {
		t.Errorf("expected count 1, got %d", n)
	}
	byName, _ := GetUserByUsername(ctx, database, "deleteme")
	if byName != nil {
		t.Error("deleted user should not be found by username")
	}
	byID, _ := GetUser(ctx, database, user.ID)
	if byID == nil || byID.DeletedAt == nil {
		t.Error("deleted user should still be readable by ID with deleted_at set")
	}
}

func TestUpdateUserRoleAndPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleLibrarian)
	UpdateUserPassword(ctx, database, user.ID, "newhash")
	UpdateUser(ctx, database, user.ID, model.RoleAdmin)

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
	if got.Role != model.RoleAdmin {
		t.Errorf("expected role admin, got %q", got.Role)
	}
}
