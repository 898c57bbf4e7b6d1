package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/upb/thesis-workflow/internal/policy"
	"github.com/upb/thesis-workflow/models"
	"github.com/upb/thesis-workflow/services/storage"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, role policy.Role, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, role, limit, offset)
	if users := args.Get(0); users != nil {
		return users.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProposalRepository is a mock implementation of ProposalRepository
type MockProposalRepository struct {
	mock.Mock
}

func (m *MockProposalRepository) Create(ctx context.Context, p *models.Proposal) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProposalRepository) GetByID(ctx context.Context, id int64) (*models.Proposal, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.Proposal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProposalRepository) List(ctx context.Context, limit, offset int) ([]*models.Proposal, error) {
	args := m.Called(ctx, limit, offset)
	if ps := args.Get(0); ps != nil {
		return ps.([]*models.Proposal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProposalRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Proposal, error) {
	args := m.Called(ctx, studentID)
	if ps := args.Get(0); ps != nil {
		return ps.([]*models.Proposal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProposalRepository) ListByAdvisor(ctx context.Context, advisorID int64) ([]*models.Proposal, error) {
	args := m.Called(ctx, advisorID)
	if ps := args.Get(0); ps != nil {
		return ps.([]*models.Proposal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProposalRepository) Update(ctx context.Context, p *models.Proposal) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockGuidanceRepository is a mock implementation of GuidanceRepository
type MockGuidanceRepository struct {
	mock.Mock
}

func (m *MockGuidanceRepository) Create(ctx context.Context, g *models.Guidance) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGuidanceRepository) GetByID(ctx context.Context, id int64) (*models.Guidance, error) {
	args := m.Called(ctx, id)
	if g := args.Get(0); g != nil {
		return g.(*models.Guidance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGuidanceRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Guidance, error) {
	args := m.Called(ctx, studentID)
	if gs := args.Get(0); gs != nil {
		return gs.([]*models.Guidance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGuidanceRepository) ListByAdvisor(ctx context.Context, advisorID int64) ([]*models.Guidance, error) {
	args := m.Called(ctx, advisorID)
	if gs := args.Get(0); gs != nil {
		return gs.([]*models.Guidance), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGuidanceRepository) Update(ctx context.Context, g *models.Guidance) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

// MockExamRepository is a mock implementation of ExamRepository
type MockExamRepository struct {
	mock.Mock
}

func (m *MockExamRepository) Create(ctx context.Context, e *models.Exam) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockExamRepository) GetByID(ctx context.Context, id int64) (*models.Exam, error) {
	args := m.Called(ctx, id)
	if e := args.Get(0); e != nil {
		return e.(*models.Exam), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExamRepository) List(ctx context.Context, limit, offset int) ([]*models.Exam, error) {
	args := m.Called(ctx, limit, offset)
	if es := args.Get(0); es != nil {
		return es.([]*models.Exam), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExamRepository) ListByExaminer(ctx context.Context, examinerID int64) ([]*models.Exam, error) {
	args := m.Called(ctx, examinerID)
	if es := args.Get(0); es != nil {
		return es.([]*models.Exam), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExamRepository) Update(ctx context.Context, e *models.Exam) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// MockFileStore is a mock implementation of storage.FileStore
type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Put(ctx context.Context, name, contentType string, content io.Reader) (*storage.Object, error) {
	args := m.Called(ctx, name, contentType, content)
	if obj := args.Get(0); obj != nil {
		return obj.(*storage.Object), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFileStore) Close() error {
	return m.Called().Error(0)
}

// MockTokenIssuer is a mock implementation of TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(id policy.Identity) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

func (m *MockTokenIssuer) Expiry() time.Duration {
	return time.Hour
}

// fakeRecorder keeps recorded activity in memory
type fakeRecorder struct {
	mu      sync.Mutex
	entries []*models.ActivityLog
	err     error
}

func (r *fakeRecorder) Record(entry *models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeRecorder) Actions() []models.ActivityAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ActivityAction, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

func (r *fakeRecorder) Last() *models.ActivityLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	return r.entries[len(r.entries)-1]
}

// fakeNotifier keeps announced messages in memory
type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return n.err
}

func (n *fakeNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func newTestEffects() (*Effects, *fakeRecorder, *fakeNotifier) {
	recorder := &fakeRecorder{}
	notifier := &fakeNotifier{}
	return NewEffects(recorder, notifier, zap.NewNop()), recorder, notifier
}

var (
	student     = policy.Identity{ID: 10, Role: policy.RoleMahasiswa}
	lecturer    = policy.Identity{ID: 20, Role: policy.RoleDosen}
	koordinator = policy.Identity{ID: 30, Role: policy.RoleKoordinator}
	kaprodi     = policy.Identity{ID: 40, Role: policy.RoleKaprodi}
	examiner    = policy.Identity{ID: 50, Role: policy.RolePenguji}
	admin       = policy.Identity{ID: 1, Role: policy.RoleAdmin}
)

// pdfContent is the smallest body the sniffer recognises as a PDF
var pdfContent = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
