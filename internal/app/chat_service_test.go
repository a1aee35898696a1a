package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pipeline-expert/internal/ai"
	"pipeline-expert/internal/model"
)

type fakeModelClient struct {
	reply        string
	err          error
	gotContents  []ai.Content
	gotSystem    string
	gotGenConfig *ai.GenerationConfig
}

func (f *fakeModelClient) GenerateContent(_ context.Context, contents []ai.Content, system string, genCfg *ai.GenerationConfig) (string, error) {
	f.gotContents = contents
	f.gotSystem = system
	f.gotGenConfig = genCfg
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakePublisher struct {
	published []model.ChatMessage
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, msg model.ChatMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func TestChatEchoesSuppliedSessionID(t *testing.T) {
	modelClient := &fakeModelClient{reply: "Use PVC-U."}
	publisher := &fakePublisher{}
	svc := NewChatService(modelClient, publisher, nil, 20)

	result, err := svc.Chat(context.Background(), ChatInput{
		UserID:    "u1",
		SessionID: "session_123_abc",
		Message:   "Need a 2-inch pipe rated 150psi",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SessionID != "session_123_abc" {
		t.Errorf("expected supplied session id back, got %q", result.SessionID)
	}
	if result.Response != "Use PVC-U." {
		t.Errorf("unexpected response: %q", result.Response)
	}
	if _, err := time.Parse(time.RFC3339, result.Timestamp); err != nil {
		t.Errorf("timestamp not RFC3339: %q", result.Timestamp)
	}
}

func TestChatMintsSessionID(t *testing.T) {
	svc := NewChatService(&fakeModelClient{reply: "ok"}, &fakePublisher{}, nil, 20)

	first, err := svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "hi again"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.SessionID == "" || !strings.HasPrefix(first.SessionID, "session_") {
		t.Errorf("unexpected minted session id: %q", first.SessionID)
	}
	if first.SessionID == second.SessionID {
		t.Errorf("minted session ids must be unique, both %q", first.SessionID)
	}
}

func TestChatPersistsBothTurns(t *testing.T) {
	publisher := &fakePublisher{}
	svc := NewChatService(&fakeModelClient{reply: "Recommendation: ..."}, publisher, nil, 20)

	result, err := svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "Need a seal kit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 enqueued messages, got %d", len(publisher.published))
	}
	userMsg, modelMsg := publisher.published[0], publisher.published[1]
	if !userMsg.IsUser || modelMsg.IsUser {
		t.Errorf("expected user then model message, got is_user=%v,%v", userMsg.IsUser, modelMsg.IsUser)
	}
	if userMsg.SessionID != result.SessionID || modelMsg.SessionID != result.SessionID {
		t.Errorf("messages not tagged with session %q", result.SessionID)
	}
	if userMsg.UserID == nil || *userMsg.UserID != "u1" {
		t.Errorf("user message missing user id")
	}
	if modelMsg.Content != "Recommendation: ..." {
		t.Errorf("model message content mismatch: %q", modelMsg.Content)
	}
}

func TestChatValidation(t *testing.T) {
	svc := NewChatService(&fakeModelClient{reply: "ok"}, &fakePublisher{}, nil, 20)

	if _, err := svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "   "}); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("expected ErrMessageEmpty, got %v", err)
	}
	if _, err := svc.Chat(context.Background(), ChatInput{Message: "hello"}); !errors.Is(err, ErrUserRequired) {
		t.Errorf("expected ErrUserRequired, got %v", err)
	}
}

func TestChatUpstreamFailure(t *testing.T) {
	publisher := &fakePublisher{}
	svc := NewChatService(&fakeModelClient{err: errors.New("boom")}, publisher, nil, 20)

	_, err := svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "hi"})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	// The inbound user message is still enqueued; only the reply is missing.
	if len(publisher.published) != 1 {
		t.Errorf("expected 1 enqueued message after upstream failure, got %d", len(publisher.published))
	}
}

func TestChatSendsPersonaAndGenerationConfig(t *testing.T) {
	modelClient := &fakeModelClient{reply: "ok"}
	svc := NewChatService(modelClient, &fakePublisher{}, nil, 20)

	if _, err := svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(modelClient.gotSystem, "PipelineExpert") {
		t.Errorf("system instruction missing persona")
	}
	cfg := modelClient.gotGenConfig
	if cfg == nil {
		t.Fatalf("expected generation config")
	}
	if cfg.Temperature != 0.7 || cfg.TopK != 40 || cfg.TopP != 0.95 || cfg.MaxOutputTokens != 1000 {
		t.Errorf("unexpected generation config: %+v", cfg)
	}
}

func TestChatInvalidatesHistoryCache(t *testing.T) {
	historyCache := newFakeHistoryCache()
	historyCache.histories["session_1_abc"] = []model.ChatMessage{
		{SessionID: "session_1_abc", Content: "stale", IsUser: true},
	}
	svc := NewChatService(&fakeModelClient{reply: "ok"}, &fakePublisher{}, historyCache, 20)

	if _, err := svc.Chat(context.Background(), ChatInput{
		UserID:    "u1",
		SessionID: "session_1_abc",
		Message:   "hi",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !historyCache.dirty["session_1_abc"] {
		t.Errorf("expected session marked dirty before enqueueing")
	}
	if _, ok := historyCache.histories["session_1_abc"]; ok {
		t.Errorf("expected cached history dropped")
	}
}

func TestChatContinuesWhenEnqueueFails(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("queue down")}
	svc := NewChatService(&fakeModelClient{reply: "ok"}, publisher, nil, 20)

	result, err := svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "hi"})
	if err != nil {
		t.Fatalf("expected chat to survive enqueue failure, got %v", err)
	}
	if result.Response != "ok" {
		t.Errorf("unexpected response: %q", result.Response)
	}
}
