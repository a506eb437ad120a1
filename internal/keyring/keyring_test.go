package keyring

import (
	"errors"
	"testing"

	gokeyring "github.com/zalando/go-keyring"
)

func TestKeyringRoundTrip(t *testing.T) {
	gokeyring.MockInit()
	k := New("")

	if k.HasPassword("vault-1") {
		t.Fatal("Expected no stored password")
	}
	if _, err := k.GetPassword("vault-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if err := k.SavePassword("vault-1", "hunter2"); err != nil {
		t.Fatalf("Failed to save password: %v", err)
	}
	if !k.HasPassword("vault-1") {
		t.Error("Expected stored password")
	}

	got, err := k.GetPassword("vault-1")
	if err != nil {
		t.Fatalf("Failed to get password: %v", err)
	}
	if got != "hunter2" {
		t.Errorf("Password mismatch: got %q", got)
	}

	// Other services do not see it
	if New("other").HasPassword("vault-1") {
		t.Error("Password should be scoped to its service")
	}

	if err := k.DeletePassword("vault-1"); err != nil {
		t.Fatalf("Failed to delete password: %v", err)
	}
	if k.HasPassword("vault-1") {
		t.Error("Password should be gone after delete")
	}
}

func TestSaveRejectsEmptyID(t *testing.T) {
	gokeyring.MockInit()
	if err := New("").SavePassword("", "x"); err == nil {
		t.Error("Expected error for empty vault id")
	}
}
