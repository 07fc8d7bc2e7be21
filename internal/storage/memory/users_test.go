package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/yndnr/tokgate/internal/core/domain"
)

func TestUserDirectory_CreateFind(t *testing.T) {
	ctx := context.Background()
	d := NewUserDirectory()

	if _, err := d.Create(ctx, "bob", "hunter2"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	u, err := d.FindByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if !d.Verify("hunter2", u.PasswordHash) {
		t.Error("Verify(correct) = false")
	}
	if d.Verify("hunter3", u.PasswordHash) {
		t.Error("Verify(wrong) = true")
	}

	if _, err := d.FindByUsername(ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("FindByUsername(alice) err = %v, want %v", err, domain.ErrUserNotFound)
	}
}

func TestUserDirectory_Conflict(t *testing.T) {
	ctx := context.Background()
	d := NewUserDirectory()

	first, _ := d.Create(ctx, "bob", "one")
	_, err := d.Create(ctx, "bob", "two")
	if !errors.Is(err, domain.ErrUserConflict) {
		t.Fatalf("duplicate Create err = %v, want %v", err, domain.ErrUserConflict)
	}

	u, _ := d.FindByUsername(ctx, "bob")
	if u != first {
		t.Error("duplicate Create replaced the original user")
	}
}

func TestUserDirectory_Validation(t *testing.T) {
	_, err := NewUserDirectory().Create(context.Background(), "", "pw")
	if !errors.Is(err, domain.ErrUserValidation) {
		t.Errorf("Create with empty name err = %v, want %v", err, domain.ErrUserValidation)
	}
}

func TestUserDirectory_ListDelete(t *testing.T) {
	ctx := context.Background()
	d := NewUserDirectory()
	for _, name := range []string{"test2", "test0", "test", "test1"} {
		if _, err := d.Create(ctx, name, name); err != nil {
			t.Fatal(err)
		}
	}

	names, _ := d.List(ctx)
	want := []string{"test", "test0", "test1", "test2"}
	if len(names) != len(want) {
		t.Fatalf("List = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("List = %v, want %v", names, want)
		}
	}

	if ok, _ := d.Delete(ctx, "test0"); !ok {
		t.Error("Delete(test0) = false")
	}
	if ok, _ := d.Delete(ctx, "test0"); ok {
		t.Error("second Delete(test0) = true")
	}
	if _, err := d.FindByUsername(ctx, "test0"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("deleted user still found: %v", err)
	}
}
