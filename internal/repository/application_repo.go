package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"crystal-preschool/backend/internal/model"
)

// ApplicationFilters 管理员列表的等值筛选条件
// 零值字段不参与过滤；Limit <= 0 时由 Service 层给默认值
type ApplicationFilters struct {
	Status string
	Branch string
	Limit  int
}

// ApplicationRepository 入园申请数据访问接口
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	ExistsByApplicationID(ctx context.Context, applicationID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.Application, error)
	ListAll(ctx context.Context, filters ApplicationFilters) ([]model.Application, error)
	UpdateStatus(ctx context.Context, applicationID, status string) (int64, error)
	CountTotal(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountByBranch(ctx context.Context) (map[string]int64, error)
}

// applicationRepo ApplicationRepository 的 GORM 实现
type applicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo 创建 ApplicationRepository 实例
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *applicationRepo) ExistsByApplicationID(ctx context.Context, applicationID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("application_id = ?", applicationID).
		Count(&count).Error
	return count > 0, err
}

func (r *applicationRepo) ListByUser(ctx context.Context, userID string) ([]model.Application, error) {
	var apps []model.Application
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) ListAll(ctx context.Context, filters ApplicationFilters) ([]model.Application, error) {
	db := r.db.WithContext(ctx).Preload("User")

	if filters.Status != "" {
		db = db.Where("status = ?", filters.Status)
	}
	if filters.Branch != "" {
		db = db.Where("preferred_branch = ?", filters.Branch)
	}
	if filters.Limit > 0 {
		db = db.Limit(filters.Limit)
	}

	var apps []model.Application
	err := db.Order("submitted_at DESC").Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, applicationID, status string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("application_id = ?", applicationID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *applicationRepo) CountTotal(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Count(&count).Error
	return count, err
}

// groupCount GROUP BY 聚合行
type groupCount struct {
	Key   string
	Count int64
}

func (r *applicationRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Count
	}
	return counts, nil
}

func (r *applicationRepo) CountByBranch(ctx context.Context) (map[string]int64, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Select("preferred_branch AS key, COUNT(*) AS count").
		Group("preferred_branch").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Key] = row.Count
	}
	return counts, nil
}
