package repository

import (
	"context"

	"gorm.io/gorm"

	"crystal-preschool/backend/internal/model"
)

// BranchRepository 校区数据访问接口
type BranchRepository interface {
	Create(ctx context.Context, branch *model.Branch) error
	GetByCode(ctx context.Context, code string) (*model.Branch, error)
	List(ctx context.Context) ([]model.Branch, error)
	Count(ctx context.Context) (int64, error)
}

// branchRepo BranchRepository 的 GORM 实现
type branchRepo struct {
	db *gorm.DB
}

// NewBranchRepo 创建 BranchRepository 实例
func NewBranchRepo(db *gorm.DB) BranchRepository {
	return &branchRepo{db: db}
}

func (r *branchRepo) Create(ctx context.Context, branch *model.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *branchRepo) GetByCode(ctx context.Context, code string) (*model.Branch, error) {
	var branch model.Branch
	err := r.db.WithContext(ctx).
		Where("branch_code = ?", code).
		First(&branch).Error
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *branchRepo) List(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&branches).Error
	return branches, err
}

func (r *branchRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Branch{}).
		Count(&count).Error
	return count, err
}
