package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/domain"
	"github.com/JideOgun/Pro-Dj-sub004/backend-booking/internal/repository"
	"github.com/jackc/pgx/v5"
)

// memStore is an in-memory BookingRepository and StatusWriter with the
// same compare-and-set semantics as the Postgres writer
type memStore struct {
	mu            sync.Mutex
	bookings      map[string]*domain.Booking
	history       []*domain.StatusChange
	notifications []*domain.Notification
	events        []domain.BookingEventType

	// ApplyErr fails ApplyStatusChange for the listed booking ids
	ApplyErr map[string]error
}

func newMemStore(bookings ...*domain.Booking) *memStore {
	s := &memStore{bookings: make(map[string]*domain.Booking), ApplyErr: make(map[string]error)}
	for _, b := range bookings {
		s.bookings[b.ID] = b
	}
	return s
}

func (s *memStore) get(id string) *domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := *s.bookings[id]
	return &b
}

func (s *memStore) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *memStore) GetByCheckoutSession(ctx context.Context, sessionID string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.CheckoutSessionID == sessionID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.ErrBookingNotFound
}

func (s *memStore) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Booking
	for _, b := range s.bookings {
		if b.IsExpiredAt(cutoff) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) CountExpiredPending(ctx context.Context, cutoff time.Time) (int, error) {
	list, _ := s.ListExpiredPending(ctx, cutoff, 1<<30)
	return len(list), nil
}

func (s *memStore) ApplyStatusChange(ctx context.Context, u *repository.StatusUpdate) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ApplyErr[u.BookingID]; err != nil {
		return nil, err
	}

	b, ok := s.bookings[u.BookingID]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	if b.Status != u.Expected {
		return nil, domain.ErrStatusChanged
	}
	if u.AssignDj != nil && b.HasDJ() {
		return nil, domain.ErrStatusChanged
	}

	b.Status = u.Change.ToStatus
	if u.Change.Reason != "" {
		b.StatusReason = u.Change.Reason
	}
	if u.AssignDj != nil {
		b.DjID, b.DjUserID = u.AssignDj.ID, u.AssignDj.UserID
	}
	b.UpdatedAt = time.Now()
	if u.SetPaid {
		now := time.Now()
		b.IsPaid = true
		b.PaidAt = &now
	}

	s.history = append(s.history, u.Change)
	s.notifications = append(s.notifications, u.Notifications...)
	if u.EventType != "" {
		s.events = append(s.events, u.EventType)
	}

	cp := *b
	return &cp, nil
}

func (s *memStore) historyFor(id string) []*domain.StatusChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.StatusChange
	for _, h := range s.history {
		if h.BookingID == id {
			out = append(out, h)
		}
	}
	return out
}

func (s *memStore) notificationsFor(userID string) []*domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// MockRecovery is a mock implementation of RejectionRecovery
type MockRecovery struct {
	mu          sync.Mutex
	calls       []string
	RecoverFunc func(ctx context.Context, booking *domain.Booking, reason string) error
}

func (m *MockRecovery) Recover(ctx context.Context, booking *domain.Booking, reason string) error {
	m.mu.Lock()
	m.calls = append(m.calls, booking.ID)
	m.mu.Unlock()
	if m.RecoverFunc != nil {
		return m.RecoverFunc(ctx, booking, reason)
	}
	return nil
}

func (m *MockRecovery) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockEmailSender is a mock implementation of EmailSender
type MockEmailSender struct {
	Sent     int
	SendFunc func(ctx context.Context, to *domain.User, booking *domain.Booking) error
}

func (m *MockEmailSender) SendBookingConfirmation(ctx context.Context, to *domain.User, booking *domain.Booking) error {
	m.Sent++
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, booking)
	}
	return nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	GetByIDFunc func(ctx context.Context, id string) (*domain.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.User{ID: id, Email: id + "@example.com", Name: "Client", Role: domain.RoleClient}, nil
}

// MockSweepLock is a mock implementation of SweepLock
type MockSweepLock struct {
	mu             sync.Mutex
	Released       int
	TryAcquireFunc func(ctx context.Context) (bool, error)
}

func (m *MockSweepLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	acquired := true
	var err error
	if m.TryAcquireFunc != nil {
		acquired, err = m.TryAcquireFunc(ctx)
	}
	if err != nil || !acquired {
		return nil, acquired, err
	}
	return func() {
		m.mu.Lock()
		m.Released++
		m.mu.Unlock()
	}, true, nil
}

// MockDjProfileRepository is a mock implementation of DjProfileRepository
type MockDjProfileRepository struct {
	ListAvailableFunc        func(ctx context.Context, excludeID string, limit int) ([]*domain.DjProfile, error)
	GetDjProfileFunc         func(ctx context.Context, id string) (*domain.DjProfile, error)
	GetDjProfileByUserIDFunc func(ctx context.Context, userID string) (*domain.DjProfile, error)
}

func (m *MockDjProfileRepository) GetDjProfile(ctx context.Context, id string) (*domain.DjProfile, error) {
	if m.GetDjProfileFunc != nil {
		return m.GetDjProfileFunc(ctx, id)
	}
	return nil, domain.ErrDjProfileNotFound
}

func (m *MockDjProfileRepository) GetDjProfileByUserID(ctx context.Context, userID string) (*domain.DjProfile, error) {
	if m.GetDjProfileByUserIDFunc != nil {
		return m.GetDjProfileByUserIDFunc(ctx, userID)
	}
	return nil, domain.ErrDjProfileNotFound
}

func (m *MockDjProfileRepository) ListAvailable(ctx context.Context, excludeID string, limit int) ([]*domain.DjProfile, error) {
	if m.ListAvailableFunc != nil {
		return m.ListAvailableFunc(ctx, excludeID, limit)
	}
	return nil, nil
}

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	Created    []*domain.Notification
	CreateFunc func(ctx context.Context, n *domain.Notification) error
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, n); err != nil {
			return err
		}
	}
	m.Created = append(m.Created, n)
	return nil
}

func (m *MockNotificationRepository) CreateTx(ctx context.Context, tx pgx.Tx, n *domain.Notification) error {
	return m.Create(ctx, n)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mu         sync.Mutex
	recoveries []*domain.RecoveryRequestedEvent
	outbox     []*domain.OutboxMessage
	err        error
}

func (m *MockEventPublisher) PublishOutbox(ctx context.Context, msg *domain.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.outbox = append(m.outbox, msg)
	return nil
}

func (m *MockEventPublisher) PublishRecoveryRequested(ctx context.Context, event *domain.RecoveryRequestedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recoveries = append(m.recoveries, event)
	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

var (
	_ repository.BookingRepository      = (*memStore)(nil)
	_ repository.StatusWriter           = (*memStore)(nil)
	_ repository.UserRepository         = (*MockUserRepository)(nil)
	_ repository.SweepLock              = (*MockSweepLock)(nil)
	_ repository.DjProfileRepository    = (*MockDjProfileRepository)(nil)
	_ repository.NotificationRepository = (*MockNotificationRepository)(nil)
	_ EventPublisher                    = (*MockEventPublisher)(nil)
)
