// Package sessionstore archives completed pipeline runs for later review.
// A postgres backend is selected when SESSION_STORE_PG_DSN is set; otherwise
// records go to a JSON file.
package sessionstore

import (
	"database/sql"
	"os"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]Record

	schemaOnce sync.Once
	schemaErr  error
}

func New(path string) *Store {
	return &Store{
		path: path,
		byID: make(map[string]Record),
	}
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("SESSION_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

func (s *Store) Get(sessionID string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	if s.db != nil {
		return s.getDB(sessionID)
	}
	return s.getFile(sessionID)
}

func (s *Store) Put(record Record) {
	if s == nil {
		return
	}
	if s.db != nil {
		s.putDB(record)
		return
	}
	s.putFile(record)
}

func (s *Store) List() []Record {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.listDB()
	}
	return s.listFile()
}

func (s *Store) Delete(sessionID string) {
	if s == nil {
		return
	}
	if s.db != nil {
		s.deleteDB(sessionID)
		return
	}
	s.deleteFile(sessionID)
}
