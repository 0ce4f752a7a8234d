package service

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"crystal-preschool/backend/internal/dto"
	"crystal-preschool/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestApplicationService() (ApplicationService, *mockApplicationRepo, *mockUserRepo, *mockMailer) {
	repo, userRepo, appRepo, branchRepo := newTestRepository()
	seedTestBranches(branchRepo)
	mail := newMockMailer()
	svc := NewApplicationService(repo, mail, zap.NewNop())
	return svc, appRepo, userRepo, mail
}

func seedTestBranches(branchRepo *mockBranchRepo) {
	_ = branchRepo.Create(context.Background(), &model.Branch{
		BranchCode: "section-b2",
		Name:       "Section B2",
	})
	_ = branchRepo.Create(context.Background(), &model.Branch{
		BranchCode: "stand-561",
		Name:       "Stand No. 561",
	})
}

func validSubmitRequest() *dto.SubmitApplicationRequest {
	return &dto.SubmitApplicationRequest{
		ChildFirstName:     "Lwazi",
		ChildLastName:      "Dlamini",
		ChildDOB:           "2022-03-15",
		ChildGender:        "male",
		ParentName:         "Zanele Dlamini",
		ParentRelationship: "mother",
		ParentEmail:        "zanele@example.com",
		ParentPhone:        "072 555 1234",
		PreferredBranch:    "section-b2",
		ProgramType:        model.ProgramFullDay,
	}
}

var appIDPattern = regexp.MustCompile(`^CRY\d{8}[A-Z0-9]{6}$`)

// ── Submit 测试 ──

func TestApplicationService_Submit_Success(t *testing.T) {
	svc, appRepo, _, _ := setupTestApplicationService()

	appID, err := svc.Submit(context.Background(), "uid-001", validSubmitRequest())
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	if !appIDPattern.MatchString(appID) {
		t.Errorf("申请编号格式不符: %s", appID)
	}

	appRepo.mu.Lock()
	defer appRepo.mu.Unlock()
	if len(appRepo.apps) != 1 {
		t.Fatalf("期望持久化 1 条申请，实际 %d 条", len(appRepo.apps))
	}
	app := appRepo.apps[0]
	if app.Status != model.StatusPending {
		t.Errorf("新申请状态应为 pending，实际=%s", app.Status)
	}
	if app.UserID != "uid-001" {
		t.Errorf("期望 user_id=uid-001，实际=%s", app.UserID)
	}
	if !app.ChildDOB.Equal(time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("出生日期解析不符: %v", app.ChildDOB)
	}
}

func TestApplicationService_Submit_UniqueApplicationIDs(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		appID, err := svc.Submit(context.Background(), "uid-001", validSubmitRequest())
		if err != nil {
			t.Fatalf("第 %d 次 Submit 失败: %v", i, err)
		}
		if seen[appID] {
			t.Fatalf("申请编号重复: %s", appID)
		}
		seen[appID] = true
	}
}

func TestApplicationService_Submit_InvalidGender(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()

	req := validSubmitRequest()
	req.ChildGender = "unknown"
	if _, err := svc.Submit(context.Background(), "uid-001", req); !errors.Is(err, ErrInvalidGender) {
		t.Errorf("期望 ErrInvalidGender，实际: %v", err)
	}
}

func TestApplicationService_Submit_InvalidProgram(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()

	req := validSubmitRequest()
	req.ProgramType = "overnight"
	if _, err := svc.Submit(context.Background(), "uid-001", req); !errors.Is(err, ErrInvalidProgram) {
		t.Errorf("期望 ErrInvalidProgram，实际: %v", err)
	}
}

func TestApplicationService_Submit_InvalidDOB(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()

	for _, dob := range []string{"15-03-2022", "2022/03/15", "not-a-date"} {
		req := validSubmitRequest()
		req.ChildDOB = dob
		if _, err := svc.Submit(context.Background(), "uid-001", req); !errors.Is(err, ErrInvalidDOB) {
			t.Errorf("dob=%q 期望 ErrInvalidDOB，实际: %v", dob, err)
		}
	}
}

func TestApplicationService_Submit_UnknownBranch(t *testing.T) {
	svc, appRepo, _, _ := setupTestApplicationService()

	req := validSubmitRequest()
	req.PreferredBranch = "no-such-branch"
	if _, err := svc.Submit(context.Background(), "uid-001", req); !errors.Is(err, ErrBranchUnknown) {
		t.Errorf("期望 ErrBranchUnknown，实际: %v", err)
	}

	appRepo.mu.Lock()
	defer appRepo.mu.Unlock()
	if len(appRepo.apps) != 0 {
		t.Error("校验失败时不应持久化申请")
	}
}

func TestApplicationService_Submit_SendsConfirmationEmail(t *testing.T) {
	svc, _, _, mail := setupTestApplicationService()

	appID, err := svc.Submit(context.Background(), "uid-001", validSubmitRequest())
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}

	// 邮件在独立 goroutine 中发送
	select {
	case sent := <-mail.ch:
		if sent.to != "zanele@example.com" {
			t.Errorf("收件人不符: %s", sent.to)
		}
		if !strings.Contains(sent.subject, "Application Submitted") {
			t.Errorf("邮件主题不符: %s", sent.subject)
		}
		if !strings.Contains(sent.body, appID) {
			t.Error("邮件正文应包含申请编号")
		}
		if !strings.Contains(sent.body, "Zanele Dlamini") {
			t.Error("邮件正文应包含家长姓名")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("等待确认邮件超时")
	}
}

// ── ListForUser / ListAll 测试 ──

func submitN(t *testing.T, svc ApplicationService, userID string, n int, mutate func(*dto.SubmitApplicationRequest)) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		req := validSubmitRequest()
		if mutate != nil {
			mutate(req)
		}
		appID, err := svc.Submit(context.Background(), userID, req)
		if err != nil {
			t.Fatalf("Submit 失败: %v", err)
		}
		ids = append(ids, appID)
	}
	return ids
}

func TestApplicationService_ListForUser_OnlyOwnApplications(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()
	submitN(t, svc, "uid-001", 2, nil)
	submitN(t, svc, "uid-002", 1, nil)

	apps, err := svc.ListForUser(context.Background(), "uid-001")
	if err != nil {
		t.Fatalf("ListForUser 应成功: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("期望 2 条申请，实际 %d 条", len(apps))
	}
	for _, app := range apps {
		if app.UserID != "uid-001" {
			t.Errorf("不应返回他人申请: user_id=%s", app.UserID)
		}
	}
}

func TestApplicationService_ListForUser_Empty(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()

	apps, err := svc.ListForUser(context.Background(), "uid-none")
	if err != nil {
		t.Fatalf("ListForUser 应成功: %v", err)
	}
	if len(apps) != 0 {
		t.Errorf("期望空列表，实际 %d 条", len(apps))
	}
}

func TestApplicationService_ListAll_Filters(t *testing.T) {
	svc, appRepo, _, _ := setupTestApplicationService()
	submitN(t, svc, "uid-001", 2, nil)
	submitN(t, svc, "uid-002", 3, func(req *dto.SubmitApplicationRequest) {
		req.PreferredBranch = "stand-561"
	})

	// 其中一条改为 approved
	appRepo.mu.Lock()
	approvedID := appRepo.apps[0].ApplicationID
	appRepo.mu.Unlock()
	if err := svc.UpdateStatus(context.Background(), approvedID, model.StatusApproved); err != nil {
		t.Fatalf("UpdateStatus 失败: %v", err)
	}

	byBranch, err := svc.ListAll(context.Background(), &dto.ApplicationListRequest{Branch: "stand-561"})
	if err != nil {
		t.Fatalf("按校区筛选失败: %v", err)
	}
	if len(byBranch) != 3 {
		t.Errorf("按校区筛选期望 3 条，实际 %d 条", len(byBranch))
	}

	byStatus, err := svc.ListAll(context.Background(), &dto.ApplicationListRequest{Status: model.StatusApproved})
	if err != nil {
		t.Fatalf("按状态筛选失败: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ApplicationID != approvedID {
		t.Errorf("按状态筛选结果不符: %+v", byStatus)
	}

	limited, err := svc.ListAll(context.Background(), &dto.ApplicationListRequest{Limit: 2})
	if err != nil {
		t.Fatalf("带上限查询失败: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit=2 期望 2 条，实际 %d 条", len(limited))
	}
}

func TestApplicationService_ListAll_IncludesApplicantInfo(t *testing.T) {
	svc, _, userRepo, _ := setupTestApplicationService()
	user := createTestUser(userRepo, "parent@example.com", "password123", model.RoleParent)
	submitN(t, svc, user.UserID, 1, nil)

	apps, err := svc.ListAll(context.Background(), &dto.ApplicationListRequest{})
	if err != nil {
		t.Fatalf("ListAll 应成功: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("期望 1 条申请，实际 %d 条", len(apps))
	}
	if apps[0].UserName != user.Name || apps[0].UserEmail != user.Email {
		t.Errorf("管理员列表应携带申请人信息，实际 name=%s email=%s", apps[0].UserName, apps[0].UserEmail)
	}
}

// ── UpdateStatus 测试 ──

func TestApplicationService_UpdateStatus_Success(t *testing.T) {
	svc, appRepo, _, _ := setupTestApplicationService()
	ids := submitN(t, svc, "uid-001", 1, nil)

	appRepo.mu.Lock()
	before := appRepo.apps[0].UpdatedAt
	appRepo.mu.Unlock()

	time.Sleep(time.Millisecond)
	if err := svc.UpdateStatus(context.Background(), ids[0], model.StatusReviewed); err != nil {
		t.Fatalf("UpdateStatus 应成功: %v", err)
	}

	appRepo.mu.Lock()
	defer appRepo.mu.Unlock()
	if appRepo.apps[0].Status != model.StatusReviewed {
		t.Errorf("期望状态=reviewed，实际=%s", appRepo.apps[0].Status)
	}
	if !appRepo.apps[0].UpdatedAt.After(before) {
		t.Error("状态变更后应刷新 updated_at")
	}
}

func TestApplicationService_UpdateStatus_InvalidStatus(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()
	ids := submitN(t, svc, "uid-001", 1, nil)

	if err := svc.UpdateStatus(context.Background(), ids[0], "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("期望 ErrInvalidStatus，实际: %v", err)
	}
}

func TestApplicationService_UpdateStatus_NotFound(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()

	err := svc.UpdateStatus(context.Background(), "CRY20260101XXXXXX", model.StatusApproved)
	if !errors.Is(err, ErrApplicationNotFound) {
		t.Errorf("期望 ErrApplicationNotFound，实际: %v", err)
	}
}

// ── Statistics 测试 ──

func TestApplicationService_Statistics(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()
	ids := submitN(t, svc, "uid-001", 3, nil)
	submitN(t, svc, "uid-002", 2, func(req *dto.SubmitApplicationRequest) {
		req.PreferredBranch = "stand-561"
	})
	if err := svc.UpdateStatus(context.Background(), ids[0], model.StatusApproved); err != nil {
		t.Fatalf("UpdateStatus 失败: %v", err)
	}

	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics 应成功: %v", err)
	}
	if stats["total"] != 5 {
		t.Errorf("期望 total=5，实际=%d", stats["total"])
	}
	if stats[model.StatusPending] != 4 {
		t.Errorf("期望 pending=4，实际=%d", stats[model.StatusPending])
	}
	if stats[model.StatusApproved] != 1 {
		t.Errorf("期望 approved=1，实际=%d", stats[model.StatusApproved])
	}
	if stats["branch_section-b2"] != 3 {
		t.Errorf("期望 branch_section-b2=3，实际=%d", stats["branch_section-b2"])
	}
	if stats["branch_stand-561"] != 2 {
		t.Errorf("期望 branch_stand-561=2，实际=%d", stats["branch_stand-561"])
	}
	// 未出现过的状态不设键
	if _, ok := stats[model.StatusRejected]; ok {
		t.Error("未出现的状态不应出现在统计中")
	}
}

func TestApplicationService_Statistics_Empty(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()

	stats, err := svc.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics 应成功: %v", err)
	}
	if stats["total"] != 0 {
		t.Errorf("空库期望 total=0，实际=%d", stats["total"])
	}
}

// ── ExportApplications 测试 ──

func TestApplicationService_Export_NoApplications(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()

	_, _, err := svc.ExportApplications(context.Background(), &dto.ApplicationListRequest{})
	if !errors.Is(err, ErrExportNoApplications) {
		t.Errorf("期望 ErrExportNoApplications，实际: %v", err)
	}
}

func TestApplicationService_Export_Success(t *testing.T) {
	svc, _, _, _ := setupTestApplicationService()
	submitN(t, svc, "uid-001", 2, nil)

	buf, filename, err := svc.ExportApplications(context.Background(), &dto.ApplicationListRequest{})
	if err != nil {
		t.Fatalf("ExportApplications 应成功: %v", err)
	}
	if buf == nil || buf.Len() == 0 {
		t.Fatal("导出文件不应为空")
	}
	expected := "applications_" + time.Now().Format("20060102") + ".xlsx"
	if filename != expected {
		t.Errorf("期望文件名=%s，实际=%s", expected, filename)
	}

	// 回读校验：表头 1 行 + 每条申请 1 行
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("回读导出文件失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Applications")
	if err != nil {
		t.Fatalf("读取 Applications 工作表失败: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("期望 3 行（表头+2 条申请），实际 %d 行", len(rows))
	}
	if len(rows) > 0 && rows[0][0] != "Application ID" {
		t.Errorf("表头首列不符: %s", rows[0][0])
	}
}
