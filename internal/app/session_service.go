package app

import (
	"context"

	"pipeline-expert/internal/model"
)

// MessageStore is the read surface for stored conversations.
type MessageStore interface {
	ListBySessionID(sessionID string) ([]model.ChatMessage, error)
	ListSessionHeads() ([]model.SessionHead, error)
	ListSessionHeadsByUserID(userID string) ([]model.SessionHead, error)
}

// HistoryCache fronts session message reads. The dirty marker keeps readers on
// the database while queued writes may not have landed yet.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, sessionID string, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

type SessionService struct {
	messages     MessageStore
	historyCache HistoryCache
}

func NewSessionService(messages MessageStore, historyCache HistoryCache) *SessionService {
	return &SessionService{
		messages:     messages,
		historyCache: historyCache,
	}
}

// ListSessions returns one head per session across all users, newest first.
func (s *SessionService) ListSessions() ([]model.SessionHead, error) {
	heads, err := s.messages.ListSessionHeads()
	if err != nil {
		return nil, err
	}
	return dedupeSessionHeads(heads), nil
}

func (s *SessionService) ListUserSessions(userID string) ([]model.SessionHead, error) {
	heads, err := s.messages.ListSessionHeadsByUserID(userID)
	if err != nil {
		return nil, err
	}
	return dedupeSessionHeads(heads), nil
}

// SessionMessages returns a session's messages in chronological order, served
// from the cache when it is warm and clean.
func (s *SessionService) SessionMessages(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messages.ListBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages, nil
}

// dedupeSessionHeads groups an ordered scan by session id, keeping the first
// occurrence of each session. Input is newest-first, so the kept row carries
// the most recent timestamp and user metadata.
func dedupeSessionHeads(heads []model.SessionHead) []model.SessionHead {
	seen := make(map[string]struct{}, len(heads))
	out := make([]model.SessionHead, 0, len(heads))
	for _, head := range heads {
		if _, ok := seen[head.SessionID]; ok {
			continue
		}
		seen[head.SessionID] = struct{}{}
		out = append(out, head)
	}
	return out
}
