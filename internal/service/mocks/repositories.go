package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SergeiKhy/shrinkurl/internal/models"
	"github.com/SergeiKhy/shrinkurl/internal/repository"
	"github.com/google/uuid"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*models.Link
	nextID int64

	// ExistsCalls counts Exists lookups, used by collision tests
	ExistsCalls int
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links:  make(map[string]*models.Link),
		nextID: 1,
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}

	now := time.Now()
	link.ID = m.nextID
	link.CreatedAt = now
	link.UpdatedAt = now
	m.nextID++

	stored := *link
	m.links[link.ShortCode] = &stored
	return nil
}

func (m *MockLinkRepository) Exists(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExistsCalls++
	_, exists := m.links[code]
	return exists, nil
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (m *MockLinkRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	links := []models.Link{}
	for _, link := range m.links {
		if link.OwnerID == owner {
			links = append(links, *link)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID > links[j].ID })
	return links, nil
}

func (m *MockLinkRepository) UpdateTarget(ctx context.Context, code, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[code]
	if !exists {
		return repository.ErrLinkNotFound
	}
	link.Target = target
	link.UpdatedAt = time.Now()
	return nil
}

func (m *MockLinkRepository) Delete(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[code]; !exists {
		return repository.ErrLinkNotFound
	}
	delete(m.links, code)
	return nil
}

func (m *MockLinkRepository) RecordClick(ctx context.Context, code string, device models.Device) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}

	switch device {
	case models.DeviceMobile:
		link.MobileClicks++
	case models.DeviceTablet:
		link.TabletClicks++
	case models.DeviceDesktop:
		link.DesktopClicks++
	default:
		return nil, fmt.Errorf("unknown device %q", device)
	}
	link.TotalClicks++

	copied := *link
	return &copied, nil
}

// Put stores a link as is, bypassing code checks
func (m *MockLinkRepository) Put(link models.Link) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if link.ID == 0 {
		link.ID = m.nextID
		m.nextID++
	}
	m.links[link.ShortCode] = &link
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
	m.nextID = 1
	m.ExistsCalls = 0
}

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[uuid.UUID]*models.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return m.update(id, func(u *models.User) { u.IsVerified = true })
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.update(id, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.update(id, func(u *models.User) { u.LastLoginAt = &at })
}

func (m *MockUserRepository) update(id uuid.UUID, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.users[id]
	if !exists {
		return repository.ErrUserNotFound
	}
	fn(user)
	user.UpdatedAt = time.Now()
	return nil
}

// MockTokenRepository implements repository.TokenRepository for testing.
// TTL is ignored: tokens live until consumed.
type MockTokenRepository struct {
	mu      sync.Mutex
	tokens  map[string]uuid.UUID
	revoked map[string]bool
}

func NewMockTokenRepository() *MockTokenRepository {
	return &MockTokenRepository{
		tokens:  make(map[string]uuid.UUID),
		revoked: make(map[string]bool),
	}
}

func (m *MockTokenRepository) Save(ctx context.Context, purpose repository.TokenPurpose, token string, userID uuid.UUID, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[string(purpose)+":"+token] = userID
	return nil
}

func (m *MockTokenRepository) Consume(ctx context.Context, purpose repository.TokenPurpose, token string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := string(purpose) + ":" + token
	userID, exists := m.tokens[key]
	if !exists {
		return uuid.Nil, repository.ErrTokenNotFound
	}
	delete(m.tokens, key)
	return userID, nil
}

func (m *MockTokenRepository) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenID] = true
	return nil
}

func (m *MockTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked[tokenID], nil
}

// Token returns any unconsumed token for purpose, empty if none
func (m *MockTokenRepository) Token(purpose repository.TokenPurpose) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.tokens {
		if token, ok := strings.CutPrefix(key, string(purpose)+":"); ok {
			return token
		}
	}
	return ""
}
