package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"crystal-preschool/backend/internal/dto"
	"crystal-preschool/backend/internal/model"
	"crystal-preschool/backend/internal/repository"
)

// BranchService 校区业务接口
type BranchService interface {
	List(ctx context.Context) ([]dto.BranchResponse, error)
	Seed(ctx context.Context) error
}

type branchService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBranchService 创建 BranchService 实例
func NewBranchService(repo *repository.Repository, logger *zap.Logger) BranchService {
	return &branchService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

// List 按名称升序返回全部校区
func (s *branchService) List(ctx context.Context) ([]dto.BranchResponse, error) {
	branches, err := s.repo.Branch.List(ctx)
	if err != nil {
		s.logger.Error("查询校区失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.BranchResponse, 0, len(branches))
	for i := range branches {
		result = append(result, toBranchResponse(&branches[i]))
	}
	return result, nil
}

// ────────────────────── Seed ──────────────────────

// Seed 播种两个固定校区；表非空时跳过，可重复调用
func (s *branchService) Seed(ctx context.Context) error {
	count, err := s.repo.Branch.Count(ctx)
	if err != nil {
		s.logger.Error("统计校区失败", zap.Error(err))
		return err
	}
	if count > 0 {
		return nil
	}

	email := "crystallearning@gmail.com"
	facilitiesB2 := "Modern classrooms, science lab, computer lab, library"
	facilities561 := "Spacious classrooms, art studio, music room, sports field"
	now := time.Now()

	seeds := []model.Branch{
		{
			BranchCode: "section-b2",
			Name:       "Section B2",
			Address:    "Next to Salvation Army Church, Mnele Village, Polokwane, Limpopo, South Africa",
			Phone:      "078 318 7635",
			Email:      &email,
			Facilities: &facilitiesB2,
			CreatedAt:  now,
		},
		{
			BranchCode: "stand-561",
			Name:       "Stand No. 561",
			Address:    "Mnele Village, Polokwane, Limpopo, South Africa",
			Phone:      "078 318 7635",
			Email:      &email,
			Facilities: &facilities561,
			CreatedAt:  now,
		},
	}

	for i := range seeds {
		if err := s.repo.Branch.Create(ctx, &seeds[i]); err != nil {
			s.logger.Error("播种校区失败", zap.String("branch_code", seeds[i].BranchCode), zap.Error(err))
			return err
		}
	}

	s.logger.Info("校区播种完成", zap.Int("count", len(seeds)))
	return nil
}

// ── 私有辅助 ──

func toBranchResponse(branch *model.Branch) dto.BranchResponse {
	resp := dto.BranchResponse{
		ID:         branch.BranchID,
		BranchCode: branch.BranchCode,
		Name:       branch.Name,
		Address:    branch.Address,
		Phone:      branch.Phone,
		CreatedAt:  branch.CreatedAt.Format(time.RFC3339),
	}
	if branch.Email != nil {
		resp.Email = *branch.Email
	}
	if branch.Facilities != nil {
		resp.Facilities = *branch.Facilities
	}
	return resp
}
