package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/middleware"
	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/services"
)

var (
	student  = policy.Identity{ID: 10, Role: policy.RoleMahasiswa}
	lecturer = policy.Identity{ID: 20, Role: policy.RoleDosen}
	kaprodi  = policy.Identity{ID: 40, Role: policy.RoleKaprodi}
	examiner = policy.Identity{ID: 50, Role: policy.RolePenguji}
	admin    = policy.Identity{ID: 1, Role: policy.RoleAdmin}
)

// newRequest builds a request carrying actor (when non-nil) and chi URL params
func newRequest(method, target string, body io.Reader, actor *policy.Identity, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.RemoteAddr = "10.0.0.7:51234"
	ctx := middleware.WithRequestID(req.Context(), "req-test")
	if actor != nil {
		a := *actor
		ctx = middleware.WithIdentity(ctx, &a)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

type envelope struct {
	Data    json.RawMessage        `json:"data"`
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// hasRequestMeta matches contexts the handler enriched for activity logging
func hasRequestMeta() interface{} {
	return mock.MatchedBy(func(ctx context.Context) bool {
		meta := services.RequestMetaFromContext(ctx)
		return meta.RequestID == "req-test" && meta.IPAddress == "10.0.0.7"
	})
}

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*services.LoginResult, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LoginResult), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, actor policy.Identity) (*models.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, actor policy.Identity, current, next string) error {
	args := m.Called(ctx, actor, current, next)
	return args.Error(0)
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, actor policy.Identity, in services.CreateUserInput) (*models.User, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, role string, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, role, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, actor policy.Identity, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

// MockProposalService is a mock implementation of ProposalService
type MockProposalService struct {
	mock.Mock
}

func (m *MockProposalService) Submit(ctx context.Context, actor policy.Identity, in services.SubmitProposalInput) (*models.Proposal, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func (m *MockProposalService) ListMine(ctx context.Context, actor policy.Identity) ([]*models.Proposal, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Proposal), args.Error(1)
}

func (m *MockProposalService) List(ctx context.Context, actor policy.Identity, limit, offset int) ([]*models.Proposal, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Proposal), args.Error(1)
}

func (m *MockProposalService) Review(ctx context.Context, actor policy.Identity, id int64, in services.ReviewInput) (*models.Proposal, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func (m *MockProposalService) AssignAdvisor(ctx context.Context, actor policy.Identity, id, advisorID int64) (*models.Proposal, error) {
	args := m.Called(ctx, actor, id, advisorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

// MockGuidanceService is a mock implementation of GuidanceService
type MockGuidanceService struct {
	mock.Mock
}

func (m *MockGuidanceService) Submit(ctx context.Context, actor policy.Identity, in services.SubmitGuidanceInput) (*models.Guidance, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guidance), args.Error(1)
}

func (m *MockGuidanceService) ListMine(ctx context.Context, actor policy.Identity) ([]*models.Guidance, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Guidance), args.Error(1)
}

func (m *MockGuidanceService) ListForAdvisor(ctx context.Context, actor policy.Identity) ([]*models.Guidance, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Guidance), args.Error(1)
}

func (m *MockGuidanceService) Feedback(ctx context.Context, actor policy.Identity, id int64, feedback string) (*models.Guidance, error) {
	args := m.Called(ctx, actor, id, feedback)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guidance), args.Error(1)
}

// MockExamService is a mock implementation of ExamService
type MockExamService struct {
	mock.Mock
}

func (m *MockExamService) Schedule(ctx context.Context, actor policy.Identity, in services.ScheduleExamInput) (*models.Exam, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

func (m *MockExamService) List(ctx context.Context, limit, offset int) ([]*models.Exam, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Exam), args.Error(1)
}

func (m *MockExamService) ListMine(ctx context.Context, actor policy.Identity) ([]*models.Exam, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Exam), args.Error(1)
}

func (m *MockExamService) Grade(ctx context.Context, actor policy.Identity, id int64, score float64, notes string) (*models.Exam, error) {
	args := m.Called(ctx, actor, id, score, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

// MockActivityLister is a mock implementation of ActivityLister
type MockActivityLister struct {
	mock.Mock
}

func (m *MockActivityLister) List(ctx context.Context, userID int64, limit, offset int) ([]*models.ActivityLog, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ActivityLog), args.Error(1)
}
