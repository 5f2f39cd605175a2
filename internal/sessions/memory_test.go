package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/aqagent/aqagent/pkg/models"
)

func TestMemoryStore_GetOrCreate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	session, err := store.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate error: %v", err)
	}
	if session.ID != "s1" {
		t.Errorf("ID = %q, want s1", session.ID)
	}

	again, err := store.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate (existing) error: %v", err)
	}
	if again.ID != session.ID {
		t.Errorf("GetOrCreate returned a different session on second call")
	}
}

func TestMemoryStore_AppendTurnAndHistory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.GetOrCreate(ctx, "s1")

	if err := store.AppendTurn(ctx, "s1", "hi", "hello!", []string{"get_city_air_quality"}, 42); err != nil {
		t.Fatalf("AppendTurn error: %v", err)
	}

	session, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(session.Turns) != 2 {
		t.Fatalf("Turns length = %d, want 2", len(session.Turns))
	}
	if session.Turns[1].Role != models.RoleAssistant || session.Turns[1].Tokens != 42 {
		t.Errorf("assistant turn malformed: %+v", session.Turns[1])
	}
}

func TestMemoryStore_AppendTurn_Unknown(t *testing.T) {
	store := NewMemoryStore()
	if err := store.AppendTurn(context.Background(), "missing", "a", "b", nil, 0); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Documents_LRUCap(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.GetOrCreate(ctx, "s1")

	for i := 0; i < models.MaxDocumentsPerSession+2; i++ {
		doc := models.NewUploadedDocument("f.csv", models.DocumentCSV, "data", nil)
		if err := store.AddDocument(ctx, "s1", doc); err != nil {
			t.Fatalf("AddDocument error: %v", err)
		}
	}

	docs, err := store.GetDocuments(ctx, "s1")
	if err != nil {
		t.Fatalf("GetDocuments error: %v", err)
	}
	if len(docs) != models.MaxDocumentsPerSession {
		t.Errorf("documents = %d, want %d", len(docs), models.MaxDocumentsPerSession)
	}
}

func TestMemoryStore_PersonalInfo(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.GetOrCreate(ctx, "s1")

	if err := store.SetPersonalInfo(ctx, "s1", models.PersonalInfo{Name: "Ada"}); err != nil {
		t.Fatalf("SetPersonalInfo error: %v", err)
	}
	if err := store.SetPersonalInfo(ctx, "s1", models.PersonalInfo{Location: "Accra"}); err != nil {
		t.Fatalf("SetPersonalInfo error: %v", err)
	}

	info, err := store.GetPersonalInfo(ctx, "s1")
	if err != nil {
		t.Fatalf("GetPersonalInfo error: %v", err)
	}
	if info.Name != "Ada" || info.Location != "Accra" {
		t.Errorf("info = %+v, want Name=Ada Location=Accra", info)
	}
}

func TestMemoryStore_Purge(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.GetOrCreate(ctx, "s1")

	if err := store.Purge(ctx, "s1"); err != nil {
		t.Fatalf("Purge error: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); err != ErrNotFound {
		t.Errorf("Get after purge err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Sweep_IdleTTL(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.GetOrCreate(ctx, "old")
	store.mu.Lock()
	store.sessions["old"].LastAccess = time.Now().Add(-2 * time.Hour)
	store.mu.Unlock()
	store.GetOrCreate(ctx, "fresh")

	removed, err := store.Sweep(ctx, time.Hour, 0)
	if err != nil {
		t.Fatalf("Sweep error: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

func TestMemoryStore_Sweep_LRUCap(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		store.GetOrCreate(ctx, string(rune('a'+i)))
	}

	removed, err := store.Sweep(ctx, 0, 3)
	if err != nil {
		t.Fatalf("Sweep error: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if store.Len() != 3 {
		t.Errorf("Len = %d, want 3", store.Len())
	}
}
