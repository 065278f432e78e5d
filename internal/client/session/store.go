// Package session persists the client's login session between runs.
package session

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketSession = []byte("session")

var (
	keyToken    = []byte("token")
	keyUsername = []byte("username")
	keyServer   = []byte("server")
)

// ErrNoSession indicates that no saved session exists.
var ErrNoSession = errors.New("no saved session")

// Session is a cached login.
type Session struct {
	Token    string
	Username string
	Server   string
}

// Store keeps the session in a local bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the session database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the session, replacing any previous one.
func (s *Store) Save(sess *Session) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if err := b.Put(keyToken, []byte(sess.Token)); err != nil {
			return err
		}
		if err := b.Put(keyUsername, []byte(sess.Username)); err != nil {
			return err
		}
		return b.Put(keyServer, []byte(sess.Server))
	})
}

// Load returns the saved session or ErrNoSession.
func (s *Store) Load() (*Session, error) {
	sess := &Session{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		token := b.Get(keyToken)
		if token == nil {
			return ErrNoSession
		}
		sess.Token = string(token)
		sess.Username = string(b.Get(keyUsername))
		sess.Server = string(b.Get(keyServer))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Clear removes the saved session.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if err := b.Delete(keyToken); err != nil {
			return err
		}
		if err := b.Delete(keyUsername); err != nil {
			return err
		}
		return b.Delete(keyServer)
	})
}
