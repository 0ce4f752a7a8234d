package service

import (
	"go.uber.org/zap"

	"crystal-preschool/backend/internal/repository"
	"crystal-preschool/backend/pkg/jwt"
	"crystal-preschool/backend/pkg/mailer"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth        AuthService
	Application ApplicationService
	Branch      BranchService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil（Redis 不可用时降级运行）
func NewService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	mail mailer.Mailer,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:        NewAuthService(repo, jwtMgr, blacklist, logger),
		Application: NewApplicationService(repo, mail, logger),
		Branch:      NewBranchService(repo, logger),
	}
}
