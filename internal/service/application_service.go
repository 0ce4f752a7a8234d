package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"crystal-preschool/backend/internal/dto"
	"crystal-preschool/backend/internal/model"
	"crystal-preschool/backend/internal/repository"
	"crystal-preschool/backend/pkg/mailer"
)

// ── 入园申请模块业务错误 ──

var (
	ErrInvalidGender       = errors.New("Invalid child gender")
	ErrInvalidDOB          = errors.New("Invalid date of birth")
	ErrInvalidProgram      = errors.New("Invalid program type")
	ErrInvalidStatus       = errors.New("Invalid status")
	ErrBranchUnknown       = errors.New("Unknown branch")
	ErrApplicationNotFound = errors.New("Application not found")
	ErrAppIDExhausted      = errors.New("Failed to generate application ID")
)

// 管理员列表默认上限
const defaultListLimit = 50

// 申请编号随机段字符集与长度
const (
	appIDCharset    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	appIDSuffixLen  = 6
	appIDMaxRetries = 5
)

var validGenders = map[string]bool{
	"male":   true,
	"female": true,
	"other":  true,
}

var validPrograms = map[string]bool{
	model.ProgramFullDay:   true,
	model.ProgramHalfDayAM: true,
	model.ProgramHalfDayPM: true,
}

var validStatuses = map[string]bool{
	model.StatusPending:  true,
	model.StatusReviewed: true,
	model.StatusApproved: true,
	model.StatusRejected: true,
}

// ApplicationService 入园申请业务接口
type ApplicationService interface {
	Submit(ctx context.Context, userID string, req *dto.SubmitApplicationRequest) (string, error)
	ListForUser(ctx context.Context, userID string) ([]dto.ApplicationResponse, error)
	ListAll(ctx context.Context, req *dto.ApplicationListRequest) ([]dto.ApplicationResponse, error)
	UpdateStatus(ctx context.Context, applicationID, status string) error
	Statistics(ctx context.Context) (map[string]int64, error)
	ExportApplications(ctx context.Context, req *dto.ApplicationListRequest) (*bytes.Buffer, string, error)
}

type applicationService struct {
	repo   *repository.Repository
	mail   mailer.Mailer
	logger *zap.Logger
}

// NewApplicationService 创建 ApplicationService 实例
func NewApplicationService(
	repo *repository.Repository,
	mail mailer.Mailer,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{
		repo:   repo,
		mail:   mail,
		logger: logger,
	}
}

// ────────────────────── Submit ──────────────────────

func (s *applicationService) Submit(ctx context.Context, userID string, req *dto.SubmitApplicationRequest) (string, error) {
	// 1. 枚举与格式校验
	if !validGenders[req.ChildGender] {
		return "", ErrInvalidGender
	}
	if !validPrograms[req.ProgramType] {
		return "", ErrInvalidProgram
	}
	dob, err := time.Parse("2006-01-02", req.ChildDOB)
	if err != nil {
		return "", ErrInvalidDOB
	}

	// 2. 目标校区必须存在
	if _, err := s.repo.Branch.GetByCode(ctx, req.PreferredBranch); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrBranchUnknown
		}
		s.logger.Error("查询校区失败", zap.Error(err))
		return "", err
	}

	// 3. 生成全局唯一申请编号
	appID, err := s.generateApplicationID(ctx)
	if err != nil {
		return "", err
	}

	// 4. 持久化，初始状态 pending
	now := time.Now()
	app := &model.Application{
		ApplicationID:      appID,
		UserID:             userID,
		ChildFirstName:     req.ChildFirstName,
		ChildLastName:      req.ChildLastName,
		ChildDOB:           dob,
		ChildGender:        req.ChildGender,
		ParentName:         req.ParentName,
		ParentRelationship: req.ParentRelationship,
		ParentEmail:        req.ParentEmail,
		ParentPhone:        req.ParentPhone,
		PreferredBranch:    req.PreferredBranch,
		ProgramType:        req.ProgramType,
		Status:             model.StatusPending,
		SubmittedAt:        now,
		UpdatedAt:          now,
	}
	if err := s.repo.Application.Create(ctx, app); err != nil {
		s.logger.Error("创建申请失败", zap.Error(err))
		return "", err
	}

	// 5. 异步发送确认邮件；投递失败不影响提交结果
	go s.sendConfirmationEmail(app)

	return appID, nil
}

// generateApplicationID 生成 CRY + 日期 + 6 位随机大写字母数字编号
// 与库中已有编号碰撞时重试，最多 appIDMaxRetries 次
func (s *applicationService) generateApplicationID(ctx context.Context) (string, error) {
	for i := 0; i < appIDMaxRetries; i++ {
		suffix := make([]byte, appIDSuffixLen)
		for j := range suffix {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(appIDCharset))))
			if err != nil {
				return "", err
			}
			suffix[j] = appIDCharset[n.Int64()]
		}

		appID := "CRY" + time.Now().Format("20060102") + string(suffix)

		exists, err := s.repo.Application.ExistsByApplicationID(ctx, appID)
		if err != nil {
			s.logger.Error("检查申请编号唯一性失败", zap.Error(err))
			return "", err
		}
		if !exists {
			return appID, nil
		}
	}
	return "", ErrAppIDExhausted
}

// ────────────────────── ListForUser ──────────────────────

func (s *applicationService) ListForUser(ctx context.Context, userID string) ([]dto.ApplicationResponse, error) {
	apps, err := s.repo.Application.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询用户申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		result = append(result, toApplicationResponse(&apps[i]))
	}
	return result, nil
}

// ────────────────────── ListAll ──────────────────────

func (s *applicationService) ListAll(ctx context.Context, req *dto.ApplicationListRequest) ([]dto.ApplicationResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	apps, err := s.repo.Application.ListAll(ctx, repository.ApplicationFilters{
		Status: req.Status,
		Branch: req.Branch,
		Limit:  limit,
	})
	if err != nil {
		s.logger.Error("查询申请列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		resp := toApplicationResponse(&apps[i])
		if apps[i].User != nil {
			resp.UserName = apps[i].User.Name
			resp.UserEmail = apps[i].User.Email
		}
		result = append(result, resp)
	}
	return result, nil
}

// ────────────────────── UpdateStatus ──────────────────────

// UpdateStatus 设置申请状态并刷新 updated_at
// 仅校验枚举成员资格，不限制状态迁移顺序
func (s *applicationService) UpdateStatus(ctx context.Context, applicationID, status string) error {
	if !validStatuses[status] {
		return ErrInvalidStatus
	}

	affected, err := s.repo.Application.UpdateStatus(ctx, applicationID, status)
	if err != nil {
		s.logger.Error("更新申请状态失败", zap.String("application_id", applicationID), zap.Error(err))
		return err
	}
	if affected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// ────────────────────── Statistics ──────────────────────

// Statistics 汇总统计：total + 各状态计数 + branch_ 前缀的各校区计数
// 状态计数是稀疏的——只有出现过的状态才有键
func (s *applicationService) Statistics(ctx context.Context) (map[string]int64, error) {
	total, err := s.repo.Application.CountTotal(ctx)
	if err != nil {
		s.logger.Error("统计申请总数失败", zap.Error(err))
		return nil, err
	}

	byStatus, err := s.repo.Application.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("按状态统计失败", zap.Error(err))
		return nil, err
	}

	byBranch, err := s.repo.Application.CountByBranch(ctx)
	if err != nil {
		s.logger.Error("按校区统计失败", zap.Error(err))
		return nil, err
	}

	stats := make(map[string]int64, 1+len(byStatus)+len(byBranch))
	stats["total"] = total
	for status, count := range byStatus {
		stats[status] = count
	}
	for branch, count := range byBranch {
		// 前缀区分校区键与状态键（两者共用一个扁平 map）
		stats["branch_"+branch] = count
	}
	return stats, nil
}

// ────────────────────── ExportApplications ──────────────────────

// 见 export_service.go

// ── 私有辅助 ──

func toApplicationResponse(app *model.Application) dto.ApplicationResponse {
	resp := dto.ApplicationResponse{
		ID:                 app.ID,
		ApplicationID:      app.ApplicationID,
		UserID:             app.UserID,
		ChildFirstName:     app.ChildFirstName,
		ChildLastName:      app.ChildLastName,
		ChildDOB:           app.ChildDOB.Format("2006-01-02"),
		ChildGender:        app.ChildGender,
		ParentName:         app.ParentName,
		ParentRelationship: app.ParentRelationship,
		ParentEmail:        app.ParentEmail,
		ParentPhone:        app.ParentPhone,
		PreferredBranch:    app.PreferredBranch,
		ProgramType:        app.ProgramType,
		Status:             app.Status,
		SubmittedAt:        app.SubmittedAt.Format(time.RFC3339),
		UpdatedAt:          app.UpdatedAt.Format(time.RFC3339),
	}
	if app.Notes != nil {
		resp.Notes = *app.Notes
	}
	return resp
}

// sendConfirmationEmail 提交成功后的确认邮件（在独立 goroutine 中调用）
func (s *applicationService) sendConfirmationEmail(app *model.Application) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("发送确认邮件 goroutine panic", zap.Any("panic", r))
		}
	}()

	subject := "Crystal Pre-School - Application Submitted"
	body := fmt.Sprintf(confirmationEmailBody,
		htmlEscape(app.ParentName),
		htmlEscape(app.ChildFirstName+" "+app.ChildLastName),
		app.ApplicationID,
	)

	if err := s.mail.Send(app.ParentEmail, subject, body); err != nil {
		s.logger.Warn("确认邮件发送失败",
			zap.String("application_id", app.ApplicationID),
			zap.String("to", app.ParentEmail),
			zap.Error(err),
		)
	}
}
