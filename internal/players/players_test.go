package players

import "testing"

func TestAddMintsValidTokenAndRoundTrips(t *testing.T) {
	r := New()
	tok, err := r.Add(Player{SessionID: 1, DogID: 42})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !ValidTokenFormat(string(tok)) {
		t.Errorf("minted token %q is not a valid 32-hex token", tok)
	}

	p, ok := r.Find(tok)
	if !ok {
		t.Fatal("Find(minted token) = not found")
	}
	if p.ID() != 42 {
		t.Errorf("Player.ID() = %d, want 42", p.ID())
	}
}

func TestAddRejectsDuplicateDogRegistration(t *testing.T) {
	r := New()
	if _, err := r.Add(Player{SessionID: 1, DogID: 1}); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	if _, err := r.Add(Player{SessionID: 1, DogID: 1}); err == nil {
		t.Error("second Add for the same dog id = nil error, want error")
	}
}

func TestRevokeByDogIDRemovesBothIndexes(t *testing.T) {
	r := New()
	tok, _ := r.Add(Player{SessionID: 1, DogID: 7})

	r.RevokeByDogID(7)

	if _, ok := r.Find(tok); ok {
		t.Error("Find(revoked token) = found, want not found")
	}
	// Revoking again, or revoking an id never registered, must be a no-op.
	r.RevokeByDogID(7)
	r.RevokeByDogID(999)
}

func TestFindUnknownToken(t *testing.T) {
	r := New()
	if _, ok := r.Find("deadbeefdeadbeefdeadbeefdeadbeef"); ok {
		t.Error("Find(never-issued token) = found, want not found")
	}
}

func TestValidTokenFormat(t *testing.T) {
	cases := []struct {
		token string
		want  bool
	}{
		{"0123456789abcdef0123456789abcdef", true},
		{"0123456789ABCDEF0123456789abcdef", true},
		{"too-short", false},
		{"0123456789abcdef0123456789abcdeXX", false}, // wrong length
		{"ghij456789abcdef0123456789abcdef", false},  // non-hex chars
		{"", false},
	}
	for _, c := range cases {
		if got := ValidTokenFormat(c.token); got != c.want {
			t.Errorf("ValidTokenFormat(%q) = %v, want %v", c.token, got, c.want)
		}
	}
}

func TestAddManyTokensAreUnique(t *testing.T) {
	r := New()
	seen := make(map[Token]bool)
	for i := int64(0); i < 500; i++ {
		tok, err := r.Add(Player{SessionID: 1, DogID: i})
		if err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token minted: %s", tok)
		}
		seen[tok] = true
	}
}
