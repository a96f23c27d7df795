package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ykvlv/feedback-bot/internal/domain"
	"github.com/ykvlv/feedback-bot/internal/store"
)

type memStore struct {
	mu       sync.Mutex
	users    map[int64]domain.User
	feedback []domain.Feedback
	failSave error
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]domain.User)}
}

func (m *memStore) GetUser(_ context.Context, chatID int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[chatID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ChatID]; ok {
		return store.ErrAlreadyExists
	}
	m.users[u.ChatID] = *u
	return nil
}

func (m *memStore) SaveOnboarding(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	m.users[u.ChatID] = *u
	return nil
}

func (m *memStore) SaveFeedback(_ context.Context, f *domain.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, *f)
	return nil
}

type recordingSender struct {
	sent []domain.Outbound
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg domain.Outbound) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) to(chatID int64) []domain.Outbound {
	var out []domain.Outbound
	for _, m := range s.sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func newTestController(repo Store, sender Sender) *Controller {
	c := NewController(repo, sender, zap.NewNop(), Settings{ManagerChatID: managerID})
	c.newID = func() string { return "fb-1" }
	c.now = func() time.Time { return time.Date(2024, time.September, 4, 21, 0, 0, 0, time.UTC) }
	return c
}

func TestController_FullOnboardingThenFeedback(t *testing.T) {
	repo := newMemStore()
	sender := &recordingSender{}
	c := newTestController(repo, sender)
	ctx := context.Background()

	require.NoError(t, c.Handle(ctx, msg(42, "/start")))
	u, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingGroupType, u.State)
	require.Len(t, sender.sent, 1, "exactly one welcome")

	require.NoError(t, c.Handle(ctx, msg(42, labelWeekday)))
	require.NoError(t, c.Handle(ctx, msg(42, "2024-09-02")))

	u, err = repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, u.State)
	require.NotNil(t, u.Cohort)
	assert.Equal(t, domain.CohortWeekday, *u.Cohort)

	sender.sent = nil
	require.NoError(t, c.Handle(ctx, msg(42, "Great session, thanks!")))

	fwd := sender.to(managerID)
	require.Len(t, fwd, 1)
	assert.Contains(t, fwd[0].Text, "Great session, thanks!")
	assert.Contains(t, fwd[0].Text, "42")

	ack := sender.to(42)
	require.Len(t, ack, 1)
	assert.Equal(t, thanksText, ack[0].Text)

	require.Len(t, repo.feedback, 1)
	assert.Equal(t, "fb-1", repo.feedback[0].ID)
}

func TestController_StorageErrorAbandonsUpdate(t *testing.T) {
	repo := newMemStore()
	require.NoError(t, repo.CreateUser(context.Background(), userIn(domain.StateAwaitingGroupType)))
	repo.failSave = errors.New("disk full")
	sender := &recordingSender{}
	c := newTestController(repo, sender)

	err := c.Handle(context.Background(), msg(42, labelWeekend))
	require.Error(t, err)

	u, _ := repo.GetUser(context.Background(), 42)
	assert.Equal(t, domain.StateAwaitingGroupType, u.State)
	assert.Nil(t, u.Cohort)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, serverErrorText, sender.sent[0].Text)
}

func TestController_TransportErrorKeepsState(t *testing.T) {
	repo := newMemStore()
	sender := &recordingSender{err: errors.New("telegram down")}
	c := newTestController(repo, sender)

	require.NoError(t, c.Handle(context.Background(), msg(7, "hi")))

	u, err := repo.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingGroupType, u.State)
}
