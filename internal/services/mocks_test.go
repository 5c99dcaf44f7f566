package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eventlottery/internal/domain"
)

type mockEventRepository struct {
	events         map[string]*domain.Event
	drawInProgress map[string]bool
	err            error
}

func (m *mockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if m.err != nil {
		return m.err
	}
	if event.ID == "" {
		event.ID = fmt.Sprintf("e%d", len(m.events)+1)
	}
	if m.events == nil {
		m.events = map[string]*domain.Event{}
	}
	m.events[event.ID] = event
	return nil
}

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	ev, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (m *mockEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*domain.Event, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev)
	}
	return out, nil
}

func (m *mockEventRepository) ListByOrganizerID(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Event
	for _, ev := range m.events {
		if ev.OrganizerID == organizerID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *mockEventRepository) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	ev, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Name != nil {
		ev.Name = *upd.Name
	}
	if upd.Open != nil {
		ev.Open = *upd.Open
	}
	return ev, nil
}

func (m *mockEventRepository) TryBeginDraw(ctx context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return domain.ErrNotFound
	}
	if m.drawInProgress[id] {
		return domain.ErrDrawInProgress
	}
	if m.drawInProgress == nil {
		m.drawInProgress = map[string]bool{}
	}
	m.drawInProgress[id] = true
	return nil
}

func (m *mockEventRepository) EndDraw(ctx context.Context, id string) error {
	delete(m.drawInProgress, id)
	return nil
}

type mockWaitlistRepository struct {
	entries []*domain.WaitlistEntry

	err        error
	moveErr    error
	resolveErr error

	resolveCalls int
}

func (m *mockWaitlistRepository) find(eventID, deviceID string) *domain.WaitlistEntry {
	for _, e := range m.entries {
		if e.EventID == eventID && e.DeviceID == deviceID {
			return e
		}
	}
	return nil
}

func (m *mockWaitlistRepository) IsInState(ctx context.Context, eventID, deviceID string, state domain.MembershipState) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	e := m.find(eventID, deviceID)
	return e != nil && e.State == state, nil
}

func (m *mockWaitlistRepository) CountByState(ctx context.Context, eventID string, state domain.MembershipState) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for _, e := range m.entries {
		if e.EventID == eventID && e.State == state {
			n++
		}
	}
	return n, nil
}

func (m *mockWaitlistRepository) AddToWaiting(ctx context.Context, eventID, deviceID string, requestTime time.Time) error {
	if m.err != nil {
		return m.err
	}
	if e := m.find(eventID, deviceID); e != nil {
		e.State = domain.StateWaiting
		e.RequestTime = &requestTime
		return nil
	}
	m.entries = append(m.entries, &domain.WaitlistEntry{
		EventID:     eventID,
		DeviceID:    deviceID,
		State:       domain.StateWaiting,
		RequestTime: &requestTime,
	})
	return nil
}

func (m *mockWaitlistRepository) RemoveFromWaiting(ctx context.Context, eventID, deviceID string) error {
	if m.err != nil {
		return m.err
	}
	for i, e := range m.entries {
		if e.EventID == eventID && e.DeviceID == deviceID && e.State == domain.StateWaiting {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockWaitlistRepository) ListByState(ctx context.Context, eventID string, state domain.MembershipState) ([]*domain.WaitlistEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.WaitlistEntry
	for _, e := range m.entries {
		if e.EventID == eventID && e.State == state {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockWaitlistRepository) MoveToWinnersAndPool(ctx context.Context, eventID string, winnerIDs, replacementIDs []string, now time.Time) error {
	if m.moveErr != nil {
		return m.moveErr
	}
	if eventID == "" || len(winnerIDs) == 0 {
		return domain.ErrInvalidInput
	}
	for _, id := range winnerIDs {
		if e := m.find(eventID, id); e != nil {
			e.State = domain.StateWinners
			e.InvitedAt = &now
		}
	}
	for _, id := range replacementIDs {
		if e := m.find(eventID, id); e != nil {
			e.State = domain.StateReplacementPool
			e.AddedToPoolAt = &now
		}
	}
	return nil
}

func (m *mockWaitlistRepository) PromoteReplacement(ctx context.Context, eventID, deviceID string, now time.Time) error {
	if m.err != nil {
		return m.err
	}
	e := m.find(eventID, deviceID)
	if e == nil {
		return domain.ErrNotFound
	}
	if e.State != domain.StateReplacementPool {
		return domain.ErrInvalidState
	}
	e.State = domain.StateWinners
	e.InvitedAt = &now
	e.IsReplacement = true
	return nil
}

func (m *mockWaitlistRepository) ResolveWinnerResponse(ctx context.Context, eventID, deviceID string, accepted bool, now time.Time) error {
	if m.resolveErr != nil {
		return m.resolveErr
	}
	m.resolveCalls++
	state := domain.StateCancelled
	if accepted {
		state = domain.StateAccepted
	}
	if e := m.find(eventID, deviceID); e != nil {
		e.State = state
		e.RespondedAt = &now
		return nil
	}
	m.entries = append(m.entries, &domain.WaitlistEntry{
		EventID:     eventID,
		DeviceID:    deviceID,
		State:       state,
		RespondedAt: &now,
	})
	return nil
}

// mockEntrantRepository is mutex-guarded: notification dispatch writes from
// multiple goroutines.
type mockEntrantRepository struct {
	mu            sync.Mutex
	profiles      map[string]*domain.Entrant
	notifications map[string][]*domain.Notification

	getErr    error
	addErr    error
	listErr   error
	updateErr error
}

func (m *mockEntrantRepository) Get(ctx context.Context, deviceID string) (*domain.Entrant, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[deviceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockEntrantRepository) Upsert(ctx context.Context, deviceID string, upd domain.EntrantUpdate) (*domain.Entrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profiles == nil {
		m.profiles = map[string]*domain.Entrant{}
	}
	p, ok := m.profiles[deviceID]
	if !ok {
		p = &domain.Entrant{DeviceID: deviceID, CreatedAt: time.Now()}
		m.profiles[deviceID] = p
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Email != nil {
		p.Email = *upd.Email
	}
	if upd.Phone != nil {
		p.Phone = *upd.Phone
	}
	if upd.Registered != nil {
		p.Registered = *upd.Registered
	}
	return p, nil
}

func (m *mockEntrantRepository) Clear(ctx context.Context, deviceID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profiles == nil {
		m.profiles = map[string]*domain.Entrant{}
	}
	p, ok := m.profiles[deviceID]
	if !ok {
		m.profiles[deviceID] = &domain.Entrant{DeviceID: deviceID, CreatedAt: now}
		return nil
	}
	p.Name, p.Email, p.Phone, p.Registered = "", "", "", false
	return nil
}

func (m *mockEntrantRepository) SetBanned(ctx context.Context, deviceID string, banned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[deviceID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Banned = banned
	return nil
}

func (m *mockEntrantRepository) AddNotification(ctx context.Context, deviceID, eventID, message, category string, now time.Time) (string, error) {
	if m.addErr != nil {
		return "", m.addErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notifications == nil {
		m.notifications = map[string][]*domain.Notification{}
	}
	id := fmt.Sprintf("n%d-%s", len(m.notifications[deviceID])+1, deviceID)
	m.notifications[deviceID] = append(m.notifications[deviceID], &domain.Notification{
		ID:        id,
		DeviceID:  deviceID,
		EventID:   eventID,
		Message:   message,
		Category:  category,
		CreatedAt: now,
	})
	return id, nil
}

func (m *mockEntrantRepository) ListNotifications(ctx context.Context, deviceID string) ([]*domain.Notification, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications[deviceID], nil
}

func (m *mockEntrantRepository) UpdateNotification(ctx context.Context, deviceID, notificationID string, upd domain.NotificationUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if upd.IsEmpty() {
		return domain.ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications[deviceID] {
		if n.ID == notificationID {
			if upd.Read != nil {
				n.Read = *upd.Read
			}
			if upd.Response != nil {
				n.Response = upd.Response
			}
			if upd.RespondedAt != nil {
				n.RespondedAt = upd.RespondedAt
			}
			return nil
		}
	}
	return domain.ErrNotFound
}

type mockMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *mockMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}
