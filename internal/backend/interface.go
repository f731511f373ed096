// Package backend builds the record store selected by configuration and
// the entry gateway on top of it.
package backend

import (
	"context"
	"time"

	"moneytracker/internal/records"
	"moneytracker/internal/services"
)

// Store is everything a backend persists: entries, users and revoked
// sessions.
type Store interface {
	records.Store
	records.UserStore
	Ping(ctx context.Context) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store, the entry gateway over it and the
// function releasing both.
type BackendResult struct {
	Store   Store
	Entries *services.EntryService
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	MySQLDSN     string
	PostgresURL  string

	// Optional; entry events are only published when set.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	StoreTimeout time.Duration
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	MySQLBackend    BackendType = "mysql"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, MySQLBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Persistent reports whether entries outlive the process.
func (bt BackendType) Persistent() bool {
	return bt != MemoryBackend
}
