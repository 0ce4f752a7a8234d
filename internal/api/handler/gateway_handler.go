package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crystal-preschool/backend/config"
	"crystal-preschool/backend/internal/dto"
	"crystal-preschool/backend/internal/model"
	"crystal-preschool/backend/internal/service"
	"crystal-preschool/backend/pkg/jwt"
	"crystal-preschool/backend/pkg/response"
)

// 动作鉴权级别
type authLevel int

const (
	authNone     authLevel = iota // 公开动作
	authRequired                  // 需要有效会话
	authAdmin                     // 需要 admin 角色
)

// 表单解析内存上限（multipart）
const maxFormMemory = 1 << 20

// params 单次请求的参数集合（查询串与表单体合并后）
type params map[string]string

// Get 取参数值，键不存在时返回空串
func (p params) Get(key string) string { return p[key] }

// identity 已认证调用方：会话声明 + 按 ID 重新查库后的用户
// 角色判定一律以 user 为准（库中角色变更即时生效）
type identity struct {
	claims *jwt.Claims
	user   *dto.UserResponse
}

// actionSpec 分发表条目：鉴权级别、必填字段、缺字段提示与处理函数
type actionSpec struct {
	auth        authLevel
	required    []string
	requiredMsg string
	handle      func(c *gin.Context, p params, ident *identity)
}

// GatewayHandler 动作网关：单一入口按 action 参数分发
type GatewayHandler struct {
	authSvc   service.AuthService
	appSvc    service.ApplicationService
	branchSvc service.BranchService
	jwtMgr    *jwt.Manager
	blacklist service.TokenBlacklist
	cookieCfg *config.CookieConfig
	logger    *zap.Logger

	actions map[string]actionSpec
}

// NewGatewayHandler 创建 GatewayHandler
// blacklist 可为 nil：黑名单校验降级跳过
func NewGatewayHandler(
	svc *service.Service,
	jwtMgr *jwt.Manager,
	blacklist service.TokenBlacklist,
	cookieCfg *config.CookieConfig,
	logger *zap.Logger,
) *GatewayHandler {
	h := &GatewayHandler{
		authSvc:   svc.Auth,
		appSvc:    svc.Application,
		branchSvc: svc.Branch,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		cookieCfg: cookieCfg,
		logger:    logger,
	}
	h.actions = h.buildActionTable()
	return h
}

// Handle 网关入口
// GET|POST /api/backend?action=<name>
func (h *GatewayHandler) Handle(c *gin.Context) {
	p := h.collectParams(c)

	spec, ok := h.actions[p.Get("action")]
	if !ok {
		response.Fail(c, "Invalid action")
		return
	}

	// 鉴权先于字段校验：未认证的调用无论字段是否齐全都返回认证失败
	var ident *identity
	if spec.auth != authNone {
		ident, ok = h.mustAuthenticate(c)
		if !ok {
			return
		}
		if spec.auth == authAdmin && ident.user.Role != model.RoleAdmin {
			response.Fail(c, "Admin access required")
			return
		}
	}

	// 必填字段缺失在进入 Service 层之前短路
	for _, field := range spec.required {
		if strings.TrimSpace(p.Get(field)) == "" {
			response.Fail(c, spec.requiredMsg)
			return
		}
	}

	spec.handle(c, p, ident)
}

// collectParams 合并查询串与表单体参数
// 同名键以表单体为准（后合并覆盖）
func (h *GatewayHandler) collectParams(c *gin.Context) params {
	p := make(params)

	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			p[key] = values[0]
		}
	}

	// 同时覆盖 urlencoded 与 multipart 两种表单编码
	_ = c.Request.ParseMultipartForm(maxFormMemory)
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			p[key] = values[0]
		}
	}

	return p
}

// ── 身份解析 ──

// resolveIdentity 解析调用方身份，不写响应
// 返回 nil 表示未认证（无令牌 / 令牌无效 / 已撤销 / 用户已不存在）
func (h *GatewayHandler) resolveIdentity(c *gin.Context) *identity {
	token := h.extractToken(c)
	if token == "" {
		return nil
	}

	claims, err := h.jwtMgr.ParseToken(token)
	if err != nil {
		return nil
	}

	if h.blacklist != nil {
		revoked, err := h.blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
		if err != nil {
			// Redis 出错时按未撤销处理，与限流降级策略一致
			h.logger.Warn("黑名单查询失败", zap.Error(err))
		} else if revoked {
			return nil
		}
	}

	// 按 ID 重新查库：角色变更即时生效，用户被删除则会话失效
	user, err := h.authSvc.GetCurrentUser(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil
	}

	return &identity{claims: claims, user: user}
}

// mustAuthenticate 解析身份；失败时写入认证失败信封
func (h *GatewayHandler) mustAuthenticate(c *gin.Context) (*identity, bool) {
	ident := h.resolveIdentity(c)
	if ident == nil {
		response.Fail(c, "Authentication required")
		return nil, false
	}
	return ident, true
}

// extractToken 从 Authorization: Bearer 头或会话 Cookie 提取令牌
func (h *GatewayHandler) extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(h.cookieCfg.Name); err == nil {
		return cookie
	}
	return ""
}

// setSessionCookie 注册/登录成功后下发会话 Cookie
func (h *GatewayHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(parseSameSite(h.cookieCfg.SameSite))
	c.SetCookie(h.cookieCfg.Name, token, maxAge, "/", h.cookieCfg.Domain, h.cookieCfg.Secure, true)
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
