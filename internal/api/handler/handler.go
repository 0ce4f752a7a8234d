package handler

import (
	"go.uber.org/zap"

	"crystal-preschool/backend/config"
	"crystal-preschool/backend/internal/service"
	"crystal-preschool/backend/pkg/jwt"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Gateway *GatewayHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(
	cfg *config.Config,
	svc *service.Service,
	jwtMgr *jwt.Manager,
	blacklist service.TokenBlacklist,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Gateway: NewGatewayHandler(svc, jwtMgr, blacklist, &cfg.Auth.Cookie, logger),
	}
}
