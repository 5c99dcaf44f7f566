package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	event *domain.Event
	err   error
}

func (f *fakeEventService) CreateEvent(ctx context.Context, event *domain.Event) error { return f.err }
func (f *fakeEventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}
func (f *fakeEventService) ListEvents(ctx context.Context) ([]*domain.Event, error) { return nil, nil }
func (f *fakeEventService) ListEventsByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	return nil, nil
}
func (f *fakeEventService) UpdateEvent(ctx context.Context, eventID, callerID string, upd domain.EventUpdate) (*domain.Event, error) {
	return nil, nil
}
func (f *fakeEventService) ListMembers(ctx context.Context, eventID string, state domain.MembershipState) ([]*domain.WaitlistEntry, error) {
	return nil, nil
}
func (f *fakeEventService) MemberCounts(ctx context.Context, eventID string) (*domain.MemberCounts, error) {
	return nil, nil
}

// fakeEnrollmentService implements domain.EnrollmentService.
type fakeEnrollmentService struct {
	joinErr  error
	leaveErr error

	lastJoinEvent    *domain.Event
	lastJoinDeviceID string
}

func (f *fakeEnrollmentService) Join(ctx context.Context, event *domain.Event, deviceID string) error {
	f.lastJoinEvent = event
	f.lastJoinDeviceID = deviceID
	return f.joinErr
}

func (f *fakeEnrollmentService) Leave(ctx context.Context, eventID, deviceID string) error {
	return f.leaveErr
}

// fakeDrawService implements domain.DrawService.
type fakeDrawService struct {
	result *domain.DrawResult
	err    error

	lastNumWinners int
	lastPoolSize   int
}

func (f *fakeDrawService) RunDraw(ctx context.Context, eventID string, numWinners, replacementPoolSize int) (*domain.DrawResult, error) {
	f.lastNumWinners = numWinners
	f.lastPoolSize = replacementPoolSize
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeDrawService) PromoteFromCancelled(ctx context.Context, eventID, deviceID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if deviceID == "" {
		return "first-in-pool", nil
	}
	return deviceID, nil
}

func (f *fakeDrawService) NotifyCancelled(ctx context.Context, eventID, message string) (int, int, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	return 2, 0, nil
}

// fakeInvitationService implements domain.InvitationService.
type fakeInvitationService struct {
	outcome *domain.ResponseOutcome
	err     error
}

func (f *fakeInvitationService) Respond(ctx context.Context, eventID, deviceID, notificationID string, accept bool) (*domain.ResponseOutcome, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func newRequest(method, target, deviceID, eventID, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if eventID != "" {
		req.SetPathValue("eventID", eventID)
	}
	if deviceID != "" {
		req = req.WithContext(middleware.SetDeviceID(req.Context(), deviceID))
	}
	return req
}

func TestWaitlistController_Join(t *testing.T) {
	event := &domain.Event{ID: "e1", OrganizerID: "org"}

	tests := []struct {
		name       string
		deviceID   string
		events     *fakeEventService
		enrollment *fakeEnrollmentService
		wantStatus int
		wantSubstr string
	}{
		{
			name:       "success",
			deviceID:   "d1",
			events:     &fakeEventService{event: event},
			enrollment: &fakeEnrollmentService{},
			wantStatus: http.StatusCreated,
			wantSubstr: "joined",
		},
		{
			name:       "unknown event",
			deviceID:   "d1",
			events:     &fakeEventService{err: domain.ErrNotFound},
			enrollment: &fakeEnrollmentService{},
			wantStatus: http.StatusNotFound,
			wantSubstr: "not_found",
		},
		{
			name:       "organizer self-join",
			deviceID:   "org",
			events:     &fakeEventService{event: event},
			enrollment: &fakeEnrollmentService{joinErr: domain.ErrForbidden},
			wantStatus: http.StatusForbidden,
			wantSubstr: "forbidden",
		},
		{
			name:       "incomplete profile",
			deviceID:   "d1",
			events:     &fakeEventService{event: event},
			enrollment: &fakeEnrollmentService{joinErr: domain.ErrProfileIncomplete},
			wantStatus: http.StatusPreconditionRequired,
			wantSubstr: "profile_incomplete",
		},
		{
			name:       "already joined",
			deviceID:   "d1",
			events:     &fakeEventService{event: event},
			enrollment: &fakeEnrollmentService{joinErr: domain.ErrAlreadyJoined},
			wantStatus: http.StatusConflict,
			wantSubstr: "conflict",
		},
		{
			name:       "window closed",
			deviceID:   "d1",
			events:     &fakeEventService{event: event},
			enrollment: &fakeEnrollmentService{joinErr: domain.ErrWindowClosed},
			wantStatus: http.StatusUnprocessableEntity,
			wantSubstr: "unprocessable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewWaitlistController(testLogger(), tt.events, tt.enrollment, &fakeDrawService{}, &fakeInvitationService{})
			req := newRequest(http.MethodPost, "/events/e1/waitlist", tt.deviceID, "e1", "")
			rr := httptest.NewRecorder()

			ctrl.Join(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			assert.Contains(t, rr.Body.String(), tt.wantSubstr, "response body")
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, tt.deviceID, tt.enrollment.lastJoinDeviceID)
				assert.Equal(t, event, tt.enrollment.lastJoinEvent)
			}
		})
	}
}

func TestWaitlistController_RunDraw(t *testing.T) {
	event := &domain.Event{ID: "e1", OrganizerID: "org"}

	t.Run("non-organizer rejected", func(t *testing.T) {
		ctrl := NewWaitlistController(testLogger(), &fakeEventService{event: event}, &fakeEnrollmentService{}, &fakeDrawService{}, &fakeInvitationService{})
		req := newRequest(http.MethodPost, "/events/e1/draw", "intruder", "e1", `{"num_winners":3}`)
		rr := httptest.NewRecorder()

		ctrl.RunDraw(rr, req)

		require.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("pool size defaults to 3", func(t *testing.T) {
		draw := &fakeDrawService{result: &domain.DrawResult{WinnerIDs: []string{"d1"}}}
		ctrl := NewWaitlistController(testLogger(), &fakeEventService{event: event}, &fakeEnrollmentService{}, draw, &fakeInvitationService{})
		req := newRequest(http.MethodPost, "/events/e1/draw", "org", "e1", `{"num_winners":5}`)
		rr := httptest.NewRecorder()

		ctrl.RunDraw(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, 5, draw.lastNumWinners)
		assert.Equal(t, 3, draw.lastPoolSize)
	})

	t.Run("explicit pool size wins", func(t *testing.T) {
		draw := &fakeDrawService{result: &domain.DrawResult{WinnerIDs: []string{"d1"}}}
		ctrl := NewWaitlistController(testLogger(), &fakeEventService{event: event}, &fakeEnrollmentService{}, draw, &fakeInvitationService{})
		req := newRequest(http.MethodPost, "/events/e1/draw", "org", "e1", `{"num_winners":5,"replacement_pool_size":0}`)
		rr := httptest.NewRecorder()

		ctrl.RunDraw(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 0, draw.lastPoolSize)
	})

	t.Run("zero winners rejected before the service", func(t *testing.T) {
		ctrl := NewWaitlistController(testLogger(), &fakeEventService{event: event}, &fakeEnrollmentService{}, &fakeDrawService{}, &fakeInvitationService{})
		req := newRequest(http.MethodPost, "/events/e1/draw", "org", "e1", `{"num_winners":0}`)
		rr := httptest.NewRecorder()

		ctrl.RunDraw(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "num_winners")
	})

	t.Run("draw in progress maps to conflict", func(t *testing.T) {
		ctrl := NewWaitlistController(testLogger(), &fakeEventService{event: event}, &fakeEnrollmentService{}, &fakeDrawService{err: domain.ErrDrawInProgress}, &fakeInvitationService{})
		req := newRequest(http.MethodPost, "/events/e1/draw", "org", "e1", `{"num_winners":3}`)
		rr := httptest.NewRecorder()

		ctrl.RunDraw(rr, req)

		require.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestWaitlistController_Respond(t *testing.T) {
	t.Run("accept", func(t *testing.T) {
		inv := &fakeInvitationService{outcome: &domain.ResponseOutcome{
			EventID: "e1", DeviceID: "d1", Accepted: true, NotificationUpdated: true,
		}}
		ctrl := NewWaitlistController(testLogger(), &fakeEventService{}, &fakeEnrollmentService{}, &fakeDrawService{}, inv)
		req := newRequest(http.MethodPost, "/events/e1/response", "d1", "e1", `{"notification_id":"n1","accept":true}`)
		rr := httptest.NewRecorder()

		ctrl.Respond(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var envelope struct {
			Data domain.ResponseOutcome `json:"data"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		assert.True(t, envelope.Data.Accepted)
		assert.True(t, envelope.Data.NotificationUpdated)
	})

	t.Run("missing notification id", func(t *testing.T) {
		ctrl := NewWaitlistController(testLogger(), &fakeEventService{}, &fakeEnrollmentService{}, &fakeDrawService{}, &fakeInvitationService{})
		req := newRequest(http.MethodPost, "/events/e1/response", "d1", "e1", `{"accept":true}`)
		rr := httptest.NewRecorder()

		ctrl.Respond(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "notification_id")
	})
}

func TestWaitlistController_Promote(t *testing.T) {
	event := &domain.Event{ID: "e1", OrganizerID: "org"}

	t.Run("empty body promotes first pool entry", func(t *testing.T) {
		ctrl := NewWaitlistController(testLogger(), &fakeEventService{event: event}, &fakeEnrollmentService{}, &fakeDrawService{}, &fakeInvitationService{})
		req := newRequest(http.MethodPost, "/events/e1/promotions", "org", "e1", `{}`)
		rr := httptest.NewRecorder()

		ctrl.Promote(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "first-in-pool")
	})

	t.Run("empty pool maps to unprocessable", func(t *testing.T) {
		ctrl := NewWaitlistController(testLogger(), &fakeEventService{event: event}, &fakeEnrollmentService{}, &fakeDrawService{err: domain.ErrEmptyPool}, &fakeInvitationService{})
		req := newRequest(http.MethodPost, "/events/e1/promotions", "org", "e1", `{}`)
		rr := httptest.NewRecorder()

		ctrl.Promote(rr, req)

		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestWaitlistController_NotifyCancelled(t *testing.T) {
	event := &domain.Event{ID: "e1", OrganizerID: "org"}

	t.Run("broadcast", func(t *testing.T) {
		ctrl := NewWaitlistController(testLogger(), &fakeEventService{event: event}, &fakeEnrollmentService{}, &fakeDrawService{}, &fakeInvitationService{})
		req := newRequest(http.MethodPost, "/events/e1/cancelled-notifications", "org", "e1", `{"message":"Better luck next time"}`)
		rr := httptest.NewRecorder()

		ctrl.NotifyCancelled(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"sent":2`)
	})

	t.Run("empty message rejected", func(t *testing.T) {
		ctrl := NewWaitlistController(testLogger(), &fakeEventService{event: event}, &fakeEnrollmentService{}, &fakeDrawService{}, &fakeInvitationService{})
		req := newRequest(http.MethodPost, "/events/e1/cancelled-notifications", "org", "e1", `{}`)
		rr := httptest.NewRecorder()

		ctrl.NotifyCancelled(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
