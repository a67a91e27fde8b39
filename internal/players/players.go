// Package players implements the token ↔ player registry (C5).
package players

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Token is a 32-hex-digit opaque bearer token.
type Token string

// Player is the pair (session, dog) identified by the dog's id.
type Player struct {
	SessionID int64
	DogID     int64
}

// ID returns the player id, which equals the dog id (§3).
func (p Player) ID() int64 { return p.DogID }

// Registry maps tokens to players and back, in O(1) both ways.
type Registry struct {
	byToken map[Token]Player
	byDogID map[int64]Token
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byToken: make(map[Token]Player),
		byDogID: make(map[int64]Token),
	}
}

// Add mints a fresh token for a player and registers it. It re-mints on
// the astronomically unlikely event of a collision (§4.5).
func (r *Registry) Add(p Player) (Token, error) {
	if _, exists := r.byDogID[p.DogID]; exists {
		return "", fmt.Errorf("players: duplicate registration for dog %d", p.DogID)
	}

	for {
		tok, err := mintToken()
		if err != nil {
			return "", err
		}
		if _, taken := r.byToken[tok]; taken {
			continue
		}
		r.byToken[tok] = p
		r.byDogID[p.DogID] = tok
		return tok, nil
	}
}

// Find resolves a token to its player.
func (r *Registry) Find(tok Token) (Player, bool) {
	p, ok := r.byToken[tok]
	return p, ok
}

// RevokeByDogID removes the player (and its token) associated with a dog
// id, in O(1), using the secondary dog_id → token index (§9).
func (r *Registry) RevokeByDogID(dogID int64) {
	tok, ok := r.byDogID[dogID]
	if !ok {
		return
	}
	delete(r.byToken, tok)
	delete(r.byDogID, dogID)
}

// mintToken derives a 32-hex-digit token from 16 bytes of entropy (§4.5).
func mintToken() (Token, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("players: mint token: %w", err)
	}
	return Token(hex.EncodeToString(b[:])), nil
}

// ValidTokenFormat reports whether s is a syntactically valid 32-hex token
// (used by the HTTP layer to distinguish invalidToken from unknownToken,
// §7).
func ValidTokenFormat(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
