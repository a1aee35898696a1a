package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"pipeline-expert/internal/ai"
	"pipeline-expert/internal/model"
)

var (
	ErrMessageEmpty = errors.New("message is required")
	ErrUserRequired = errors.New("user id is required")
	ErrUpstream     = errors.New("model request failed")
)

// ModelClient is the outbound generative-language call.
type ModelClient interface {
	GenerateContent(ctx context.Context, contents []ai.Content, systemInstruction string, genCfg *ai.GenerationConfig) (string, error)
}

// AsyncMessagePublisher enqueues a chat message for persistence.
type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.ChatMessage) error
}

type ChatService struct {
	modelClient   ModelClient
	publisher     AsyncMessagePublisher
	historyCache  HistoryCache
	historyWindow int
}

type ChatInput struct {
	UserID    string
	SessionID string
	Message   string
	History   []Turn
}

type ChatResult struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"sessionId"`
}

func NewChatService(
	modelClient ModelClient,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	historyWindow int,
) *ChatService {
	if historyWindow <= 0 {
		historyWindow = 20
	}
	return &ChatService{
		modelClient:   modelClient,
		publisher:     publisher,
		historyCache:  historyCache,
		historyWindow: historyWindow,
	}
}

// Chat runs one conversation turn: persist the user message, call the model,
// persist the reply. Message writes go through the queue and are not awaited;
// a failed enqueue is logged but does not fail the turn.
func (s *ChatService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrMessageEmpty
	}
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrUserRequired
	}

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		sessionID = NewSessionID()
	}

	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, sessionID)
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}
	s.enqueue(ctx, model.ChatMessage{
		SessionID: sessionID,
		Content:   message,
		IsUser:    true,
		UserID:    &userID,
		CreatedAt: time.Now(),
	})

	contents := buildContents(input.History, message, s.historyWindow)
	reply, err := s.modelClient.GenerateContent(ctx, contents, systemInstruction, ai.DefaultGenerationConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}

	timestamp := time.Now().UTC()
	s.enqueue(ctx, model.ChatMessage{
		SessionID: sessionID,
		Content:   reply,
		IsUser:    false,
		UserID:    &userID,
		CreatedAt: timestamp,
	})

	return &ChatResult{
		Response:  reply,
		Timestamp: timestamp.Format(time.RFC3339),
		SessionID: sessionID,
	}, nil
}

// TestConnection probes the model with a fixed prompt to verify the API key
// and network path.
func (s *ChatService) TestConnection(ctx context.Context) (string, error) {
	contents := []ai.Content{
		{
			Role:  "user",
			Parts: []ai.Part{{Text: "Tell me about pipeline products"}},
		},
	}
	reply, err := s.modelClient.GenerateContent(ctx, contents, systemInstruction, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	return reply, nil
}

func (s *ChatService) enqueue(ctx context.Context, msg model.ChatMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		log.Printf("enqueue chat message failed: %v", err)
	}
}

// NewSessionID mints an opaque session identifier: millisecond timestamp plus
// a random suffix so ids minted in the same millisecond stay distinct.
func NewSessionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), suffix)
}
