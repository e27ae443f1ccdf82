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

	"github.com/stretchr/testify/require"

	"eventlisting/internal/delivery/http/helpers"
	"eventlisting/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testUserID    = "0b7c7f36-0d4e-4f4c-9b38-3a5f1f0f8a01"
	testOtherID   = "1c8d8a47-1e5f-4a5d-8c49-4b6a2a1a9b02"
	testEventID   = "2d9e9b58-2f6a-4b6e-9d5a-5c7b3b2bac03"
	testRequestID = "3eafac69-3a7b-4c7f-8e6b-6d8c4c3cbd04"
	testCatID     = "4fbabd7a-4b8c-4d8a-9f7c-7e9d5d4dce05"
)

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	event  *domain.Event
	events []*domain.Event
	err    error

	lastUserID      string
	lastEventID     string
	lastNew         domain.NewEventInput
	lastUpdate      domain.UpdateEventInput
	lastUserAction  *domain.UserStateAction
	lastAdminAction *domain.AdminStateAction
	lastParams      domain.PaginationParams
	lastHit         domain.Hit
}

func (f *fakeEventService) CreateEvent(_ context.Context, userID string, in domain.NewEventInput) (*domain.Event, error) {
	f.lastUserID, f.lastNew = userID, in
	return f.event, f.err
}

func (f *fakeEventService) ListUserEvents(_ context.Context, userID string, params domain.PaginationParams) ([]*domain.Event, error) {
	f.lastUserID, f.lastParams = userID, params
	return f.events, f.err
}

func (f *fakeEventService) GetUserEvent(_ context.Context, userID, eventID string) (*domain.Event, error) {
	f.lastUserID, f.lastEventID = userID, eventID
	return f.event, f.err
}

func (f *fakeEventService) UpdateEventByUser(_ context.Context, userID, eventID string, in domain.UpdateEventInput, action *domain.UserStateAction) (*domain.Event, error) {
	f.lastUserID, f.lastEventID, f.lastUpdate, f.lastUserAction = userID, eventID, in, action
	return f.event, f.err
}

func (f *fakeEventService) UpdateEventByAdmin(_ context.Context, eventID string, in domain.UpdateEventInput, action *domain.AdminStateAction) (*domain.Event, error) {
	f.lastEventID, f.lastUpdate, f.lastAdminAction = eventID, in, action
	return f.event, f.err
}

func (f *fakeEventService) GetPublishedEvent(_ context.Context, eventID string, hit domain.Hit) (*domain.Event, error) {
	f.lastEventID, f.lastHit = eventID, hit
	return f.event, f.err
}

// fakeRequestService implements domain.RequestService for handler tests.
type fakeRequestService struct {
	request  *domain.Request
	requests []*domain.Request
	result   *domain.RequestStatusUpdateResult
	err      error

	lastUserID    string
	lastEventID   string
	lastRequestID string
	lastIDs       []string
	lastStatus    domain.RequestStatus
}

func (f *fakeRequestService) CreateRequest(_ context.Context, userID, eventID string) (*domain.Request, error) {
	f.lastUserID, f.lastEventID = userID, eventID
	return f.request, f.err
}

func (f *fakeRequestService) CancelRequest(_ context.Context, userID, requestID string) (*domain.Request, error) {
	f.lastUserID, f.lastRequestID = userID, requestID
	return f.request, f.err
}

func (f *fakeRequestService) ListUserRequests(_ context.Context, userID string) ([]*domain.Request, error) {
	f.lastUserID = userID
	return f.requests, f.err
}

func (f *fakeRequestService) ListEventRequests(_ context.Context, userID, eventID string) ([]*domain.Request, error) {
	f.lastUserID, f.lastEventID = userID, eventID
	return f.requests, f.err
}

func (f *fakeRequestService) UpdateRequestStatuses(_ context.Context, userID, eventID string, ids []string, status domain.RequestStatus) (*domain.RequestStatusUpdateResult, error) {
	f.lastUserID, f.lastEventID, f.lastIDs, f.lastStatus = userID, eventID, ids, status
	return f.result, f.err
}

// fakeUserService implements domain.UserService for handler tests.
type fakeUserService struct {
	user     *domain.User
	category *domain.Category
	err      error

	lastName  string
	lastEmail string
	lastID    string
}

func (f *fakeUserService) CreateUser(_ context.Context, name, email string) (*domain.User, error) {
	f.lastName, f.lastEmail = name, email
	return f.user, f.err
}

func (f *fakeUserService) GetUser(_ context.Context, id string) (*domain.User, error) {
	f.lastID = id
	return f.user, f.err
}

func (f *fakeUserService) CreateCategory(_ context.Context, name string) (*domain.Category, error) {
	f.lastName = name
	return f.category, f.err
}

func (f *fakeUserService) GetCategory(_ context.Context, id string) (*domain.Category, error) {
	f.lastID = id
	return f.category, f.err
}

// serve registers handler under pattern on a fresh mux so path values are populated, then runs the request.
func serve(t *testing.T, pattern string, handler http.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

// decodeEnvelope decodes the response envelope, unmarshalling data into dest when non-nil.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) *helpers.APIError {
	t.Helper()
	var env struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	if dest != nil {
		require.NoError(t, json.Unmarshal(env.Data, dest))
	}
	return env.Error
}
