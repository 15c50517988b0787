// Package localstore persists the small amount of client-owned state: the
// auth token, the cached user record, and UI preferences. It is the desktop
// analog of the browser's localStorage, backed by a sqlite file.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stoop/internal/models"
)

// Fixed storage keys. Token and cached user are always written and purged
// together; the token is the source of truth for "is authenticated", the
// cached user is advisory display data only.
const (
	keyToken      = "authToken"
	keyCachedUser = "cachedUser"
	prefPrefix    = "pref:"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("localstore: not found")

type record struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (record) TableName() string { return "kv" }

// Store is a sqlite-backed key-value store.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the store at path. Use ":memory:" for an
// ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrate local store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) get(key string) (string, error) {
	var rec record
	if err := s.db.First(&rec, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return rec.Value, nil
}

func (s *Store) set(key, value string) error {
	rec := record{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.Save(&rec).Error
}

// Token returns the stored bearer token, or "" when none is stored.
func (s *Store) Token() string {
	v, err := s.get(keyToken)
	if err != nil {
		return ""
	}
	return v
}

// SetToken stores the bearer token.
func (s *Store) SetToken(token string) error {
	return s.set(keyToken, token)
}

// CachedUser returns the advisory cached user record.
func (s *Store) CachedUser() (*models.User, error) {
	v, err := s.get(keyCachedUser)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(v), &u); err != nil {
		return nil, fmt.Errorf("decode cached user: %w", err)
	}
	return &u, nil
}

// SetCachedUser stores the advisory cached user record.
func (s *Store) SetCachedUser(u *models.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.set(keyCachedUser, string(raw))
}

// PurgeAuth removes the token and the cached user in one transaction. Both
// entries are invalidated together or not at all.
func (s *Store) PurgeAuth() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Delete(&record{}, "key IN ?", []string{keyToken, keyCachedUser}).Error
	})
}

// Authenticated reports whether a token is stored and, when it is a JWT with
// an exp claim, not yet expired. The signature is not verified here; the
// backend remains the authority and rejects bad tokens with a 401.
func (s *Store) Authenticated() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque tokens are allowed; presence is enough.
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(time.Now())
}

// SetPref stores one UI preference (e.g. sidebar collapsed).
func (s *Store) SetPref(name, value string) error {
	return s.set(prefPrefix+name, value)
}

// Pref returns one UI preference, or "" when unset.
func (s *Store) Pref(name string) string {
	v, err := s.get(prefPrefix + name)
	if err != nil {
		return ""
	}
	return v
}
