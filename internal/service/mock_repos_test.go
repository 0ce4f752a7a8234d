package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"crystal-preschool/backend/internal/model"
	"crystal-preschool/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]*model.User
	byEmail map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("uid-%03d", m.seq)
	}
	m.byID[user.UserID] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.LastLogin = &at
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock ApplicationRepository ──

type mockApplicationRepo struct {
	mu    sync.Mutex
	seq   int
	apps  []*model.Application
	users *mockUserRepo // ListAll 连表查询的数据来源
}

func newMockApplicationRepo(users *mockUserRepo) *mockApplicationRepo {
	return &mockApplicationRepo{users: users}
}

func (m *mockApplicationRepo) Create(_ context.Context, app *model.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if app.ID == "" {
		m.seq++
		app.ID = fmt.Sprintf("app-%03d", m.seq)
	}
	m.apps = append(m.apps, app)
	return nil
}

func (m *mockApplicationRepo) ExistsByApplicationID(_ context.Context, applicationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, app := range m.apps {
		if app.ApplicationID == applicationID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockApplicationRepo) ListByUser(_ context.Context, userID string) ([]model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Application
	for _, app := range m.apps {
		if app.UserID == userID {
			result = append(result, *app)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.After(result[j].SubmittedAt)
	})
	return result, nil
}

func (m *mockApplicationRepo) ListAll(_ context.Context, filters repository.ApplicationFilters) ([]model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Application
	for _, app := range m.apps {
		if filters.Status != "" && app.Status != filters.Status {
			continue
		}
		if filters.Branch != "" && app.PreferredBranch != filters.Branch {
			continue
		}
		copied := *app
		if m.users != nil {
			if u, ok := m.users.byID[app.UserID]; ok {
				copied.User = u
			}
		}
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.After(result[j].SubmittedAt)
	})
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *mockApplicationRepo) UpdateStatus(_ context.Context, applicationID, status string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, app := range m.apps {
		if app.ApplicationID == applicationID {
			app.Status = status
			app.UpdatedAt = time.Now()
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockApplicationRepo) CountTotal(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.apps)), nil
}

func (m *mockApplicationRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, app := range m.apps {
		counts[app.Status]++
	}
	return counts, nil
}

func (m *mockApplicationRepo) CountByBranch(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, app := range m.apps {
		counts[app.PreferredBranch]++
	}
	return counts, nil
}

// ── Mock BranchRepository ──

type mockBranchRepo struct {
	mu       sync.Mutex
	seq      int
	branches map[string]*model.Branch
}

func newMockBranchRepo() *mockBranchRepo {
	return &mockBranchRepo{branches: make(map[string]*model.Branch)}
}

func (m *mockBranchRepo) Create(_ context.Context, branch *model.Branch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if branch.BranchID == "" {
		m.seq++
		branch.BranchID = fmt.Sprintf("br-%03d", m.seq)
	}
	m.branches[branch.BranchCode] = branch
	return nil
}

func (m *mockBranchRepo) GetByCode(_ context.Context, code string) (*model.Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.branches[code]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBranchRepo) List(_ context.Context) ([]model.Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Branch
	for _, b := range m.branches {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *mockBranchRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.branches)), nil
}

// ── Mock Mailer ──

type sentMail struct {
	to      string
	subject string
	body    string
}

// mockMailer 记录发件并通过 channel 通知（确认邮件为异步发送）
type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
	ch   chan sentMail
}

func newMockMailer() *mockMailer {
	return &mockMailer{ch: make(chan sentMail, 8)}
}

func (m *mockMailer) Send(to, subject, htmlBody string) error {
	mail := sentMail{to: to, subject: subject, body: htmlBody}
	m.mu.Lock()
	m.sent = append(m.sent, mail)
	m.mu.Unlock()
	select {
	case m.ch <- mail:
	default:
	}
	return nil
}

// ── Fake TokenBlacklist ──

// fakeBlacklist 内存撤销集合，记录每个 jti 的 TTL
type fakeBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{revoked: make(map[string]time.Duration)}
}

func (f *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = ttl
	return nil
}

func (f *fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[jti]
	return ok, nil
}

// ── 测试装配辅助 ──

func newTestRepository() (*repository.Repository, *mockUserRepo, *mockApplicationRepo, *mockBranchRepo) {
	userRepo := newMockUserRepo()
	appRepo := newMockApplicationRepo(userRepo)
	branchRepo := newMockBranchRepo()
	repo := &repository.Repository{
		User:        userRepo,
		Application: appRepo,
		Branch:      branchRepo,
	}
	return repo, userRepo, appRepo, branchRepo
}
