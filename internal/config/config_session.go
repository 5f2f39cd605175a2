package config

import "time"

// SessionConfig controls the Session Manager's (C6) write lock. Session
// state itself is always in-process (internal/sessions.MemoryStore); this
// agent has no multi-channel identity or persistence layer to scope.
type SessionConfig struct {
	// LockTimeout bounds how long a turn waits to acquire a session's write
	// lock before the pipeline reports session_busy. Zero uses
	// sessions.DefaultLockTimeout.
	LockTimeout time.Duration `yaml:"lock_timeout"`
}
