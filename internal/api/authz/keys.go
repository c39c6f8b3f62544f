package authz

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Key is a named bcrypt hash of an admin API key. Plain keys are never stored.
type Key struct {
	Name string
	Hash string
}

// KeyRing authenticates bearer tokens against the configured admin keys.
type KeyRing struct {
	keys []Key
}

func NewKeyRing(keys []Key) *KeyRing {
	ring := &KeyRing{}
	for _, key := range keys {
		hash := strings.TrimSpace(key.Hash)
		if hash == "" {
			continue
		}
		name := strings.TrimSpace(key.Name)
		if name == "" {
			name = "admin"
		}
		ring.keys = append(ring.keys, Key{Name: name, Hash: hash})
	}
	return ring
}

func (k *KeyRing) Len() int {
	if k == nil {
		return 0
	}
	return len(k.keys)
}

// Authenticate returns the admin owning token, or ErrUnauthenticated.
func (k *KeyRing) Authenticate(token string) (*Admin, error) {
	token = strings.TrimSpace(token)
	if k == nil || token == "" {
		return nil, ErrUnauthenticated
	}
	for _, key := range k.keys {
		if VerifyAPIKey(key.Hash, token) {
			return &Admin{Name: key.Name}, nil
		}
	}
	return nil, ErrUnauthenticated
}

// HashAPIKey produces the value stored in admin.keys[].hash.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyAPIKey(hash, key string) bool {
	if hash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
