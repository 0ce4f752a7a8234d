package handler

import (
	"bytes"
	"context"
	"sync"
	"time"

	"crystal-preschool/backend/internal/dto"
	"crystal-preschool/backend/internal/service"
)

// ── Mock Service：函数字段便于每个用例单独注入行为 ──

type mockAuthService struct {
	registerFn       func(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	loginFn          func(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	logoutFn         func(ctx context.Context, jti string, expiresAt time.Time) error
	getCurrentUserFn func(ctx context.Context, userID string) (*dto.UserResponse, error)
}

func (m *mockAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	return m.registerFn(ctx, req)
}

func (m *mockAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, jti, expiresAt)
	}
	return nil
}

func (m *mockAuthService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	return m.getCurrentUserFn(ctx, userID)
}

type mockApplicationService struct {
	submitFn       func(ctx context.Context, userID string, req *dto.SubmitApplicationRequest) (string, error)
	listForUserFn  func(ctx context.Context, userID string) ([]dto.ApplicationResponse, error)
	listAllFn      func(ctx context.Context, req *dto.ApplicationListRequest) ([]dto.ApplicationResponse, error)
	updateStatusFn func(ctx context.Context, applicationID, status string) error
	statisticsFn   func(ctx context.Context) (map[string]int64, error)
	exportFn       func(ctx context.Context, req *dto.ApplicationListRequest) (*bytes.Buffer, string, error)
}

func (m *mockApplicationService) Submit(ctx context.Context, userID string, req *dto.SubmitApplicationRequest) (string, error) {
	return m.submitFn(ctx, userID, req)
}

func (m *mockApplicationService) ListForUser(ctx context.Context, userID string) ([]dto.ApplicationResponse, error) {
	return m.listForUserFn(ctx, userID)
}

func (m *mockApplicationService) ListAll(ctx context.Context, req *dto.ApplicationListRequest) ([]dto.ApplicationResponse, error) {
	return m.listAllFn(ctx, req)
}

func (m *mockApplicationService) UpdateStatus(ctx context.Context, applicationID, status string) error {
	return m.updateStatusFn(ctx, applicationID, status)
}

func (m *mockApplicationService) Statistics(ctx context.Context) (map[string]int64, error) {
	return m.statisticsFn(ctx)
}

func (m *mockApplicationService) ExportApplications(ctx context.Context, req *dto.ApplicationListRequest) (*bytes.Buffer, string, error) {
	return m.exportFn(ctx, req)
}

type mockBranchService struct {
	listFn func(ctx context.Context) ([]dto.BranchResponse, error)
	seedFn func(ctx context.Context) error
}

func (m *mockBranchService) List(ctx context.Context) ([]dto.BranchResponse, error) {
	return m.listFn(ctx)
}

func (m *mockBranchService) Seed(ctx context.Context) error {
	if m.seedFn != nil {
		return m.seedFn(ctx)
	}
	return nil
}

// ── Fake TokenBlacklist：内存撤销集合 ──

type fakeBlacklist struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{revoked: make(map[string]bool)}
}

func (f *fakeBlacklist) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = true
	return nil
}

func (f *fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[jti], nil
}

// 编译期接口断言
var (
	_ service.AuthService        = (*mockAuthService)(nil)
	_ service.ApplicationService = (*mockApplicationService)(nil)
	_ service.BranchService      = (*mockBranchService)(nil)
	_ service.TokenBlacklist     = (*fakeBlacklist)(nil)
)
