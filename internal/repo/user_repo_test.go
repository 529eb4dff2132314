package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
)

func TestCreateAndGetUser(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	u := seedUser(t, db, "ada@example.com", domain.RoleUser)
	if u.ID == "" {
		t.Fatalf("expected generated UUID")
	}

	got, err := GetUser(context.Background(), db, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "ada@example.com" || got.Role != domain.RoleUser {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestGetUserByEmail_DuplicateRejected(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	seedUser(t, db, "ada@example.com", domain.RoleUser)

	if _, err := GetUserByEmail(context.Background(), db, "ada@example.com"); err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if _, err := GetUserByEmail(context.Background(), db, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	err := CreateUser(context.Background(), db, &domain.User{
		Name: "Dup", Email: "ada@example.com", Role: "user", PasswordHash: "h", Active: true,
	})
	if err == nil {
		t.Fatalf("expected unique email violation")
	}
}

func TestDeactivateUser_HidesFromReads(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	u := seedUser(t, db, "gone@example.com", domain.RoleUser)

	if err := DeactivateUser(context.Background(), db, u.ID); err != nil {
		t.Fatalf("DeactivateUser: %v", err)
	}
	if _, err := GetUser(context.Background(), db, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deactivated user still readable, err=%v", err)
	}
	if _, err := GetUserByEmail(context.Background(), db, "gone@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deactivated user still resolvable by email, err=%v", err)
	}

	_, total, err := ListUsers(context.Background(), db, 0, 10)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if total != 0 {
		t.Fatalf("deactivated user counted, total=%d", total)
	}
}

func TestGetUserByResetToken(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	u := seedUser(t, db, "reset@example.com", domain.RoleUser)

	now := time.Now().UTC()
	valid := now.Add(10 * time.Minute)
	if err := UpdateUser(context.Background(), db, u.ID, map[string]any{
		"password_reset_token":   "hashedtoken",
		"password_reset_expires": valid,
	}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := GetUserByResetToken(context.Background(), db, "hashedtoken", now)
	if err != nil || got.ID != u.ID {
		t.Fatalf("valid token lookup failed: %v", err)
	}

	// Expired token must not resolve.
	if _, err := GetUserByResetToken(context.Background(), db, "hashedtoken", valid.Add(time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired token resolved, err=%v", err)
	}
	// Wrong token must not resolve.
	if _, err := GetUserByResetToken(context.Background(), db, "other", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrong token resolved, err=%v", err)
	}
}

func TestListUsers_Pagination(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	for _, e := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		seedUser(t, db, e, domain.RoleUser)
	}
	page, total, err := ListUsers(context.Background(), db, 0, 2)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("total=%d len=%d", total, len(page))
	}
}

func TestDeleteUser(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	u := seedUser(t, db, "bye@example.com", domain.RoleUser)

	if err := DeleteUser(context.Background(), db, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := DeleteUser(context.Background(), db, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete should be ErrNotFound, got %v", err)
	}
}
