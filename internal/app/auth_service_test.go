package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axel-advisor/internal/model"
	"axel-advisor/internal/pkg/jwtutil"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*model.User)}
}

func (s *memUserStore) Create(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) GetByID(id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (s *memUserStore) GetByUsername(username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) GetByEmail(email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newMemUserStore(), "test-secret", time.Hour)

	registered, err := svc.Register(RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	require.NotNil(t, registered.User)
	assert.NotEmpty(t, registered.User.ID)
	assert.Equal(t, "alice@example.com", registered.User.Email)
	assert.NotEqual(t, "correct horse battery", registered.User.PasswordHash)

	claims, err := jwtutil.ParseToken("test-secret", registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)

	logged, err := svc.Login(LoginInput{Username: "alice", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, logged.User.ID)
}

func TestRegisterDuplicates(t *testing.T) {
	svc := NewAuthService(newMemUserStore(), "test-secret", time.Hour)

	_, err := svc.Register(RegisterInput{Username: "alice", Email: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterInput{Username: "alice", Email: "other@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = svc.Register(RegisterInput{Username: "bob", Email: "alice@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newMemUserStore(), "test-secret", time.Hour)

	_, err := svc.Register(RegisterInput{Username: "alice", Email: "a@b.c", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(RegisterInput{Username: "", Email: "a@b.c", Password: "longenough"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(newMemUserStore(), "test-secret", time.Hour)

	_, err := svc.Register(RegisterInput{Username: "alice", Email: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Login(LoginInput{Username: "alice", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(LoginInput{Username: "nobody", Password: "longenough"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
