package auth_test

import (
	"testing"
	"time"

	"github.com/osrplabs/osrp/internal/auth"
)

func TestLoginStoreRoundTrip(t *testing.T) {
	store := auth.NewLoginStore(5 * time.Minute)
	defer store.Stop()

	login := &auth.PendingLogin{
		Username:        "testuser",
		Salt:            "0101",
		Verifier:        "abcd",
		EphemeralSecret: "1234",
		ClientPublic:    "5678",
	}

	id, err := store.Store(login)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected non-empty handle")
	}

	got := store.Retrieve(id)
	if got == nil {
		t.Fatal("expected stored login")
	}
	if got.Username != login.Username || got.EphemeralSecret != login.EphemeralSecret {
		t.Error("retrieved login does not match stored login")
	}
}

func TestLoginStoreOneTimeUse(t *testing.T) {
	store := auth.NewLoginStore(5 * time.Minute)
	defer store.Stop()

	id, err := store.Store(&auth.PendingLogin{Username: "testuser"})
	if err != nil {
		t.Fatal(err)
	}

	if store.Retrieve(id) == nil {
		t.Fatal("first retrieval failed")
	}
	if store.Retrieve(id) != nil {
		t.Error("second retrieval must fail; ephemeral secrets are use-once")
	}
}

func TestLoginStoreUnknownHandle(t *testing.T) {
	store := auth.NewLoginStore(5 * time.Minute)
	defer store.Stop()

	if store.Retrieve("no-such-handle") != nil {
		t.Error("expected nil for unknown handle")
	}
}

func TestLoginStoreExpiry(t *testing.T) {
	store := auth.NewLoginStore(10 * time.Millisecond)
	defer store.Stop()

	id, err := store.Store(&auth.PendingLogin{Username: "testuser"})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)
	if store.Retrieve(id) != nil {
		t.Error("expected expired login to be unretrievable")
	}
}

func TestLoginStoreDistinctHandles(t *testing.T) {
	store := auth.NewLoginStore(5 * time.Minute)
	defer store.Stop()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := store.Store(&auth.PendingLogin{Username: "testuser"})
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatal("handle collision")
		}
		seen[id] = true
	}
	if store.Count() != 50 {
		t.Errorf("expected 50 pending logins, got %d", store.Count())
	}
}
