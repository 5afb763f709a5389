package app

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"

	"axel-advisor/internal/model"
	"axel-advisor/internal/vectorstore"
)

// stubEmbedder produces a deterministic bag-of-words vector so texts that
// share words score as similar in the in-memory index.
type stubEmbedder struct {
	configured bool
	err        error
	calls      int
}

func (e *stubEmbedder) Configured() bool { return e.configured }

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, 16)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(word, ".,!?")))
		vec[h.Sum32()%16]++
	}
	return vec, nil
}

type storedVector struct {
	id   string
	vec  []float32
	meta vectorstore.Metadata
}

// memIndex is an in-memory namespace-partitioned index honoring the same
// isolation contract as the real backend.
type memIndex struct {
	mu         sync.Mutex
	namespaces map[string][]storedVector
}

func newMemIndex() *memIndex {
	return &memIndex{namespaces: make(map[string][]storedVector)}
}

func (m *memIndex) Upsert(_ context.Context, orgID, vectorID string, embedding []float32, meta vectorstore.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns := vectorstore.Namespace(orgID)
	vecs := m.namespaces[ns]
	for i := range vecs {
		if vecs[i].id == vectorID {
			vecs[i] = storedVector{id: vectorID, vec: embedding, meta: meta}
			return nil
		}
	}
	m.namespaces[ns] = append(vecs, storedVector{id: vectorID, vec: embedding, meta: meta})
	return nil
}

func (m *memIndex) Query(_ context.Context, orgID string, embedding []float32, topK int) ([]vectorstore.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []vectorstore.Match
	for _, sv := range m.namespaces[vectorstore.Namespace(orgID)] {
		matches = append(matches, vectorstore.Match{
			ID:       sv.id,
			Score:    cosine(embedding, sv.vec),
			Metadata: sv.meta,
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *memIndex) count(orgID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.namespaces[vectorstore.Namespace(orgID)])
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

type stubGenerator struct {
	answer  string
	err     error
	calls   int
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

type memOrgStore struct {
	mu   sync.Mutex
	orgs map[string]*model.Organization
}

func newMemOrgStore(orgs ...*model.Organization) *memOrgStore {
	s := &memOrgStore{orgs: make(map[string]*model.Organization)}
	for _, org := range orgs {
		s.orgs[org.ID] = org
	}
	return s
}

func (s *memOrgStore) Create(org *model.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[org.ID] = org
	return nil
}

func (s *memOrgStore) GetByID(id string) (*model.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[id]
	if !ok {
		return nil, nil
	}
	copied := *org
	return &copied, nil
}

func (s *memOrgStore) GetByOwnerID(ownerID string) (*model.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, org := range s.orgs {
		if org.OwnerID == ownerID {
			copied := *org
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memOrgStore) IncrementCreditsIfBelow(orgID string, ceiling int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok || org.CreditsUsed >= ceiling {
		return false, nil
	}
	org.CreditsUsed++
	return true, nil
}

func (s *memOrgStore) credits(orgID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orgs[orgID].CreditsUsed
}

type memSectionStore struct {
	mu       sync.Mutex
	sections map[string]*model.Section
}

func newMemSectionStore(sections ...*model.Section) *memSectionStore {
	s := &memSectionStore{sections: make(map[string]*model.Section)}
	for _, section := range sections {
		s.sections[section.ID] = section
	}
	return s
}

func (s *memSectionStore) Create(section *model.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[section.ID] = section
	return nil
}

func (s *memSectionStore) GetByID(id string) (*model.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	section, ok := s.sections[id]
	if !ok {
		return nil, nil
	}
	copied := *section
	return &copied, nil
}

func (s *memSectionStore) ListByOrgID(orgID string) ([]model.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Section
	for _, section := range s.sections {
		if section.OrgID == orgID {
			out = append(out, *section)
		}
	}
	return out, nil
}

type memConvStore struct {
	mu    sync.Mutex
	convs []*model.Conversation
}

func (s *memConvStore) Create(conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs = append(s.convs, conv)
	return nil
}

func (s *memConvStore) GetByID(id string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range s.convs {
		if conv.ID == id {
			copied := *conv
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memConvStore) GetLatestBySectionID(sectionID string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *model.Conversation
	for _, conv := range s.convs {
		if conv.SectionID != sectionID {
			continue
		}
		if latest == nil || conv.CreatedAt.After(latest.CreatedAt) {
			latest = conv
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

// memMessageStore is both the message reader and the synchronous persister
// target used in tests.
type memMessageStore struct {
	mu       sync.Mutex
	messages []model.Message
}

func (s *memMessageStore) Create(message *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *message)
	return nil
}

func (s *memMessageStore) ListByConversationID(conversationID string, limit int) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Message
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memDocStore struct {
	mu   sync.Mutex
	docs []*model.Document
}

func (s *memDocStore) Create(doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return nil
}

type stubBlobStore struct {
	keys []string
	err  error
}

func (s *stubBlobStore) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	return "https://blobs.test/" + key, nil
}

type memTurnMarker struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func newMemTurnMarker() *memTurnMarker {
	return &memTurnMarker{claimed: make(map[string]bool)}
}

func (m *memTurnMarker) MarkTurnCharged(_ context.Context, turnID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.claimed[turnID] {
		return false, nil
	}
	m.claimed[turnID] = true
	return true, nil
}

func (m *memTurnMarker) ClearTurn(_ context.Context, turnID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimed, turnID)
	return nil
}

var errBoom = errors.New("boom")
