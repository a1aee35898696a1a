package app

import (
	"context"
	"testing"
	"time"

	"pipeline-expert/internal/model"
)

type fakeMessageStore struct {
	messages []model.ChatMessage
	heads    []model.SessionHead
}

func (f *fakeMessageStore) ListBySessionID(sessionID string) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, msg := range f.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) ListSessionHeads() ([]model.SessionHead, error) {
	return f.heads, nil
}

func (f *fakeMessageStore) ListSessionHeadsByUserID(userID string) ([]model.SessionHead, error) {
	var out []model.SessionHead
	for _, head := range f.heads {
		if head.UserID == userID {
			out = append(out, head)
		}
	}
	return out, nil
}

type fakeHistoryCache struct {
	histories map[string][]model.ChatMessage
	dirty     map[string]bool
	sets      int
	deletes   int
	marks     int
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{
		histories: make(map[string][]model.ChatMessage),
		dirty:     make(map[string]bool),
	}
}

func (f *fakeHistoryCache) GetHistory(_ context.Context, sessionID string) ([]model.ChatMessage, bool, error) {
	messages, ok := f.histories[sessionID]
	return messages, ok, nil
}

func (f *fakeHistoryCache) SetHistory(_ context.Context, sessionID string, messages []model.ChatMessage) error {
	f.histories[sessionID] = messages
	f.sets++
	return nil
}

func (f *fakeHistoryCache) DeleteHistory(_ context.Context, sessionID string) error {
	delete(f.histories, sessionID)
	f.deletes++
	return nil
}

func (f *fakeHistoryCache) MarkDirty(_ context.Context, sessionID string) error {
	f.dirty[sessionID] = true
	f.marks++
	return nil
}

func (f *fakeHistoryCache) IsDirty(_ context.Context, sessionID string) (bool, error) {
	return f.dirty[sessionID], nil
}

func TestListSessionsDeduplicatesFirstSeen(t *testing.T) {
	now := time.Now()
	store := &fakeMessageStore{heads: []model.SessionHead{
		{SessionID: "s2", CreatedAt: now, UserID: "u1", Username: "bob", DisplayName: "Bob"},
		{SessionID: "s1", CreatedAt: now.Add(-time.Minute), UserID: "u2", Username: "ann", DisplayName: "Ann"},
		{SessionID: "s2", CreatedAt: now.Add(-2 * time.Minute), UserID: "u1", Username: "bob", DisplayName: "Bob"},
		{SessionID: "s1", CreatedAt: now.Add(-3 * time.Minute), UserID: "u2", Username: "ann", DisplayName: "Ann"},
	}}
	svc := NewSessionService(store, nil)

	sessions, err := svc.ListSessions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	// Scan order is newest-first, so the kept row per session is the newest.
	if sessions[0].SessionID != "s2" || !sessions[0].CreatedAt.Equal(now) {
		t.Errorf("unexpected first session: %+v", sessions[0])
	}
	if sessions[1].SessionID != "s1" {
		t.Errorf("unexpected second session: %+v", sessions[1])
	}
}

func TestListUserSessionsFiltersByUser(t *testing.T) {
	store := &fakeMessageStore{heads: []model.SessionHead{
		{SessionID: "s1", UserID: "u1"},
		{SessionID: "s2", UserID: "u2"},
		{SessionID: "s1", UserID: "u1"},
	}}
	svc := NewSessionService(store, nil)

	sessions, err := svc.ListUserSessions("u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != "s1" {
		t.Errorf("unexpected sessions: %+v", sessions)
	}
}

func TestSessionMessagesChronological(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	store := &fakeMessageStore{messages: []model.ChatMessage{
		{SessionID: "s1", Content: "first", IsUser: true, CreatedAt: base},
		{SessionID: "s1", Content: "second", IsUser: false, CreatedAt: base.Add(time.Second)},
		{SessionID: "other", Content: "noise", IsUser: true, CreatedAt: base},
	}}
	svc := NewSessionService(store, nil)

	messages, err := svc.SessionMessages(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Errorf("messages out of chronological order at %d", i)
		}
	}
}

func TestSessionMessagesServedFromCleanCache(t *testing.T) {
	store := &fakeMessageStore{messages: []model.ChatMessage{
		{SessionID: "s1", Content: "from database", IsUser: true},
	}}
	historyCache := newFakeHistoryCache()
	historyCache.histories["s1"] = []model.ChatMessage{
		{SessionID: "s1", Content: "from cache", IsUser: true},
	}
	svc := NewSessionService(store, historyCache)

	messages, err := svc.SessionMessages(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "from cache" {
		t.Errorf("expected cached history, got %+v", messages)
	}
}

func TestSessionMessagesCacheMissWarmsCache(t *testing.T) {
	store := &fakeMessageStore{messages: []model.ChatMessage{
		{SessionID: "s1", Content: "from database", IsUser: true},
	}}
	historyCache := newFakeHistoryCache()
	svc := NewSessionService(store, historyCache)

	messages, err := svc.SessionMessages(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "from database" {
		t.Errorf("expected database read on miss, got %+v", messages)
	}
	if historyCache.sets != 1 {
		t.Errorf("expected cache warm after miss, sets=%d", historyCache.sets)
	}
	if cached := historyCache.histories["s1"]; len(cached) != 1 || cached[0].Content != "from database" {
		t.Errorf("unexpected cached value: %+v", cached)
	}
}

func TestSessionMessagesDirtyBypassesCache(t *testing.T) {
	store := &fakeMessageStore{messages: []model.ChatMessage{
		{SessionID: "s1", Content: "from database", IsUser: true},
	}}
	historyCache := newFakeHistoryCache()
	historyCache.histories["s1"] = []model.ChatMessage{
		{SessionID: "s1", Content: "stale cache", IsUser: true},
	}
	historyCache.dirty["s1"] = true
	svc := NewSessionService(store, historyCache)

	messages, err := svc.SessionMessages(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 || messages[0].Content != "from database" {
		t.Errorf("dirty session must read the database, got %+v", messages)
	}
	// The dirty marker also blocks re-warming with possibly incomplete rows.
	if cached := historyCache.histories["s1"]; cached[0].Content != "stale cache" {
		t.Errorf("dirty session must not overwrite the cache, got %+v", cached)
	}
}
