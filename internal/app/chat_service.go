package app

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"axel-advisor/internal/model"
)

// GenerationFallback is persisted as the assistant message when the
// generative model fails: a chat turn always produces some assistant
// message so the conversation history stays consistent.
const GenerationFallback = "The assistant could not produce an answer right now. Please try again in a moment."

// Generator invokes the generative model with a single composite prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MessagePersister appends a message to durable storage. The RabbitMQ
// publisher satisfies this for async persistence through a single ordered
// queue; SyncPersister writes straight through a repository.
type MessagePersister interface {
	Persist(ctx context.Context, msg model.Message) error
}

type conversationStore interface {
	Create(conv *model.Conversation) error
	GetByID(id string) (*model.Conversation, error)
	GetLatestBySectionID(sectionID string) (*model.Conversation, error)
}

type sectionStore interface {
	GetByID(id string) (*model.Section, error)
	ListByOrgID(orgID string) ([]model.Section, error)
}

type organizationGetter interface {
	GetByID(id string) (*model.Organization, error)
}

type messageReader interface {
	ListByConversationID(conversationID string, limit int) ([]model.Message, error)
}

// HistoryCache is the read-side cache for conversation history, invalidated
// whenever a turn appends messages.
type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, conversationID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, conversationID string) error
	MarkDirty(ctx context.Context, conversationID string) error
	IsDirty(ctx context.Context, conversationID string) (bool, error)
}

// ChatService runs one chat turn: limit check, retrieval, generation, and
// the two ordered message appends.
type ChatService struct {
	orgs      organizationGetter
	sections  sectionStore
	convs     conversationStore
	messages  messageReader
	persister MessagePersister
	retrieval *RetrievalService
	generator Generator
	meter     *UsageMeter
	history   HistoryCache

	// Turns on the same conversation are serialized so persisted
	// timestamps always reflect submission order.
	convLocks sync.Map
}

func NewChatService(
	orgs organizationGetter,
	sections sectionStore,
	convs conversationStore,
	messages messageReader,
	persister MessagePersister,
	retrieval *RetrievalService,
	generator Generator,
	meter *UsageMeter,
	history HistoryCache,
) *ChatService {
	return &ChatService{
		orgs:      orgs,
		sections:  sections,
		convs:     convs,
		messages:  messages,
		persister: persister,
		retrieval: retrieval,
		generator: generator,
		meter:     meter,
		history:   history,
	}
}

type SendMessageInput struct {
	ConversationID string
	Content        string
	// TurnID identifies this turn attempt for usage-meter idempotency.
	// Optional; an empty value charges unconditionally.
	TurnID string
}

type SendMessageResult struct {
	Answer   string          `json:"answer"`
	Messages []model.Message `json:"messages"`
	Context  []string        `json:"context,omitempty"`
}

// SendMessage executes one chat turn. A denied usage check is terminal and
// side-effect free; after it passes, the user message is persisted even when
// generation fails, and the assistant message is persisted in all cases.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	content := strings.TrimSpace(input.Content)
	if input.ConversationID == "" || content == "" {
		return nil, ErrInvalidInput
	}

	conv, err := s.convs.GetByID(input.ConversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	section, err := s.sections.GetByID(conv.SectionID)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, ErrSectionNotFound
	}

	org, err := s.orgs.GetByID(section.OrgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}

	if err := s.meter.CheckAndIncrement(ctx, org.ID, input.TurnID); err != nil {
		return nil, err
	}

	lock := s.lockConversation(conv.ID)
	defer lock.Unlock()

	contextDocs := s.retrieval.Retrieve(ctx, org.ID, content)
	prompt := buildPrompt(section.SystemPromptTemplate, JoinContext(contextDocs), content)

	userMessage := model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	s.invalidateHistory(ctx, conv.ID)
	if err := s.persister.Persist(ctx, userMessage); err != nil {
		return nil, err
	}

	answer, err := s.generator.Generate(ctx, prompt)
	answer = strings.TrimSpace(answer)
	if err != nil {
		log.Printf("generation failed for conversation %s: %v", conv.ID, err)
		answer = GenerationFallback
	} else if answer == "" {
		answer = GenerationFallback
	}

	assistantMessage := model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        answer,
		CreatedAt:      time.Now(),
	}
	if !assistantMessage.CreatedAt.After(userMessage.CreatedAt) {
		assistantMessage.CreatedAt = userMessage.CreatedAt.Add(time.Millisecond)
	}
	s.invalidateHistory(ctx, conv.ID)
	if err := s.persister.Persist(ctx, assistantMessage); err != nil {
		return nil, err
	}

	return &SendMessageResult{
		Answer:   answer,
		Messages: []model.Message{userMessage, assistantMessage},
		Context:  contextDocs,
	}, nil
}

// StartConversation returns the existing conversation for a section or
// lazily creates the first one. Each section carries a single thread.
func (s *ChatService) StartConversation(sectionID string) (*model.Conversation, error) {
	if sectionID == "" {
		return nil, ErrInvalidInput
	}

	section, err := s.sections.GetByID(sectionID)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, ErrSectionNotFound
	}

	existing, err := s.convs.GetLatestBySectionID(sectionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	conv := &model.Conversation{
		ID:        uuid.NewString(),
		SectionID: sectionID,
		Title:     "New Chat",
		CreatedAt: time.Now(),
	}
	if err := s.convs.Create(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// ListSections returns the personas available to an organization.
func (s *ChatService) ListSections(orgID string) ([]model.Section, error) {
	if orgID == "" {
		return nil, ErrInvalidInput
	}
	return s.sections.ListByOrgID(orgID)
}

// GetHistory reads a conversation back in timestamp order, through the
// cache when it is clean.
func (s *ChatService) GetHistory(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	if conversationID == "" {
		return nil, ErrInvalidInput
	}

	conv, err := s.convs.GetByID(conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	if s.history != nil {
		dirty, err := s.history.IsDirty(ctx, conversationID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.history.GetHistory(ctx, conversationID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messages.ListByConversationID(conversationID, limit)
	if err != nil {
		return nil, err
	}
	if s.history != nil {
		if dirty, dirtyErr := s.history.IsDirty(ctx, conversationID); dirtyErr == nil && !dirty {
			_ = s.history.SetHistory(ctx, conversationID, messages)
		}
	}
	return messages, nil
}

func (s *ChatService) lockConversation(conversationID string) *sync.Mutex {
	actual, _ := s.convLocks.LoadOrStore(conversationID, &sync.Mutex{})
	lock := actual.(*sync.Mutex)
	lock.Lock()
	return lock
}

func (s *ChatService) invalidateHistory(ctx context.Context, conversationID string) {
	if s.history == nil {
		return
	}
	_ = s.history.MarkDirty(ctx, conversationID)
	_ = s.history.DeleteHistory(ctx, conversationID)
}

// buildPrompt composes the three delimited blocks in priority order: the
// persona instructions first, the retrieved context second, and the user
// message always last.
func buildPrompt(systemPrompt, contextBlock, userMessage string) string {
	var b strings.Builder
	b.WriteString("SYSTEM INSTRUCTIONS:\n")
	b.WriteString(systemPrompt)
	b.WriteString("\n\nRELEVANT CONTEXT FROM DOCUMENTS:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nUSER MESSAGE:\n")
	b.WriteString(userMessage)
	return b.String()
}
