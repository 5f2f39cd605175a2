package sessions

import (
	"context"
	"time"

	"github.com/aqagent/aqagent/pkg/models"
)

// Store is the interface for session persistence and is the sole owner of
// Session state: callers never see the live pointer, only cloned snapshots.
type Store interface {
	// GetOrCreate returns the session for id, creating an empty one if it
	// does not exist yet or has expired past its idle TTL.
	GetOrCreate(ctx context.Context, id string) (*models.Session, error)

	// Get returns a cloned snapshot of the session, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Session, error)

	// AppendTurn records one user/assistant exchange and updates LastAccess.
	AppendTurn(ctx context.Context, id string, userText, assistantText string, toolsUsed []string, tokens int) error

	// AddDocument attaches an uploaded document, evicting the oldest if the
	// session is already at MaxDocumentsPerSession.
	AddDocument(ctx context.Context, id string, doc models.UploadedDocument) error

	// GetDocuments returns the session's currently attached documents.
	GetDocuments(ctx context.Context, id string) ([]models.UploadedDocument, error)

	// SetPersonalInfo records a disclosed personal-info field (name/location).
	SetPersonalInfo(ctx context.Context, id string, info models.PersonalInfo) error

	// GetPersonalInfo returns what has been recorded for the session.
	GetPersonalInfo(ctx context.Context, id string) (models.PersonalInfo, error)

	// UpdateSummary replaces the rolling conversation summary.
	UpdateSummary(ctx context.Context, id string, summary models.ConversationSummary) error

	// Purge removes a session immediately, e.g. on explicit user reset.
	Purge(ctx context.Context, id string) error

	// Sweep evicts sessions idle past ttl, then LRU-evicts down to maxSessions
	// if still over capacity. Returns the number of sessions removed.
	Sweep(ctx context.Context, ttl time.Duration, maxSessions int) (int, error)

	// Len returns the current number of tracked sessions.
	Len() int
}

// DefaultIdleTTL is how long a session survives without activity.
const DefaultIdleTTL = time.Hour

// DefaultMaxSessions is the LRU cap enforced by Sweep.
const DefaultMaxSessions = 50
