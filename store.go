package main

import (
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/apibillme/cache"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Store is the sqlite backed KVStore and the user table for the HTTP front end.
type Store struct {
	db        *sql.DB
	log       zerolog.Logger
	userCache cache.Cache
}

const kvTable string = `
  CREATE TABLE IF NOT EXISTS kvdata (
      key TEXT PRIMARY KEY,
      value BLOB NOT NULL
  )
`

const userTable string = `
  CREATE TABLE IF NOT EXISTS users (
      user TEXT PRIMARY KEY,
      hash TEXT NOT NULL,
      level INT NOT NULL
  )
`

const dbFile string = "data/photosearch.db"

func NewStore(filename string) (*Store, error) {
	logger := componentLogger("store")

	if filename == "" {
		filename = dbFile
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", "file:"+filename)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	for _, stmt := range []string{kvTable, userTable} {
		if _, err = db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}

	return &Store{
		db:        db,
		log:       logger,
		userCache: cache.New(256, cache.WithTTL(1*time.Hour)),
	}, nil
}

func (store *Store) Close() error {
	return store.db.Close()
}

func (store *Store) GetValue(key string) ([]byte, bool, error) {
	row := store.db.QueryRow("SELECT value FROM kvdata WHERE key = ?", key)
	var data []byte
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (store *Store) SetValue(key string, value []byte) error {
	_, err := store.db.Exec(
		"INSERT INTO kvdata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key,
		value,
	)
	return err
}

func (store *Store) AddUser(user string, pass string, level int) error {
	hash, err := argon2id.CreateHash(pass, argon2id.DefaultParams)
	if err != nil {
		return err
	}
	_, err = store.db.Exec(
		"INSERT INTO users (user, hash, level) VALUES (?, ?, ?) ON CONFLICT(user) DO UPDATE SET hash = excluded.hash, level = excluded.level",
		user,
		hash,
		level,
	)
	return err
}

// TestUser checks a password against the stored argon2id hash. Verified
// credentials are remembered for an hour to skip the hash on every request.
func (store *Store) TestUser(user string, pass string) bool {
	userPass, ok := store.userCache.Get(user)
	if ok && 1 == subtle.ConstantTimeCompare([]byte(userPass.(string)), []byte(pass)) {
		return true
	}
	row := store.db.QueryRow("SELECT hash FROM users WHERE user = ?", user)
	var hash string
	err := row.Scan(&hash)
	if err == nil {
		match, err := argon2id.ComparePasswordAndHash(pass, hash)
		if err != nil {
			store.log.Error().Err(err).Msg("Error comparing password hashes")
			return false
		}
		if match {
			store.userCache.Set(user, pass)
			return true
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		store.log.Error().Err(err).Msg("User lookup failed")
	}
	return false
}
