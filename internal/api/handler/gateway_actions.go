package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crystal-preschool/backend/internal/dto"
	"crystal-preschool/backend/internal/model"
	"crystal-preschool/backend/internal/service"
	"crystal-preschool/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// 文案可直接返回给调用方的业务错误
// 不在列表中的错误一律折叠为动作各自的兜底提示
var clientErrors = []error{
	service.ErrEmailExists,
	service.ErrUserNotFound,
	service.ErrInvalidCredentials,
	service.ErrInvalidGender,
	service.ErrInvalidDOB,
	service.ErrInvalidProgram,
	service.ErrInvalidStatus,
	service.ErrBranchUnknown,
	service.ErrApplicationNotFound,
	service.ErrExportNoApplications,
}

// failWith 业务错误转信封：已知错误用自身文案，未知错误用兜底文案
func (h *GatewayHandler) failWith(c *gin.Context, err error, fallback string) {
	for _, known := range clientErrors {
		if errors.Is(err, known) {
			response.Fail(c, err.Error())
			return
		}
	}
	h.logger.Error("动作处理失败", zap.String("action", c.Query("action")), zap.Error(err))
	response.Fail(c, fallback)
}

// buildActionTable 构建动作分发表
func (h *GatewayHandler) buildActionTable() map[string]actionSpec {
	return map[string]actionSpec{
		"register": {
			auth:        authNone,
			required:    []string{"name", "email", "phone", "password"},
			requiredMsg: "All fields are required",
			handle:      h.register,
		},
		"login": {
			auth:        authNone,
			required:    []string{"email", "password"},
			requiredMsg: "Email and password are required",
			handle:      h.login,
		},
		"logout": {
			auth:   authNone,
			handle: h.logout,
		},
		"check_auth": {
			auth:   authNone,
			handle: h.checkAuth,
		},
		"submit_application": {
			auth: authRequired,
			required: []string{
				"childFirstName", "childLastName", "childDob", "childGender",
				"parentName", "parentRelationship", "parentEmail", "parentPhone",
				"preferredBranch", "programType",
			},
			requiredMsg: "All fields are required",
			handle:      h.submitApplication,
		},
		"get_applications": {
			auth:   authRequired,
			handle: h.getApplications,
		},
		"update_status": {
			auth:        authAdmin,
			required:    []string{"applicationId", "status"},
			requiredMsg: "Application ID and status are required",
			handle:      h.updateStatus,
		},
		"get_statistics": {
			auth:   authAdmin,
			handle: h.getStatistics,
		},
		"export_applications": {
			auth:   authAdmin,
			handle: h.exportApplications,
		},
		"get_branches": {
			auth:   authNone,
			handle: h.getBranches,
		},
		"initialize": {
			auth:   authNone,
			handle: h.initialize,
		},
	}
}

// ── 各动作处理函数 ──

func (h *GatewayHandler) register(c *gin.Context, p params, _ *identity) {
	req := &dto.RegisterRequest{
		Name:     p.Get("name"),
		Email:    p.Get("email"),
		Phone:    p.Get("phone"),
		Password: p.Get("password"),
	}

	result, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		h.failWith(c, err, "Registration failed")
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresIn)
	response.OK(c, "Registration successful", response.Payload{
		"user":  result.User,
		"token": result.Token,
	})
}

func (h *GatewayHandler) login(c *gin.Context, p params, _ *identity) {
	req := &dto.LoginRequest{
		Email:    p.Get("email"),
		Password: p.Get("password"),
	}

	result, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		h.failWith(c, err, "Login failed")
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresIn)
	response.OK(c, "Login successful", response.Payload{
		"user":  result.User,
		"token": result.Token,
	})
}

// logout 无条件成功：有令牌则撤销，没有也返回成功
func (h *GatewayHandler) logout(c *gin.Context, _ params, _ *identity) {
	if token := h.extractToken(c); token != "" {
		if claims, err := h.jwtMgr.ParseToken(token); err == nil {
			_ = h.authSvc.Logout(c.Request.Context(), claims.ID, claims.ExpiresAt.Time)
		}
	}

	h.setSessionCookie(c, "", -1)
	response.OK(c, "Logged out", nil)
}

func (h *GatewayHandler) checkAuth(c *gin.Context, _ params, _ *identity) {
	if ident := h.resolveIdentity(c); ident != nil {
		response.OK(c, "", response.Payload{
			"authenticated": true,
			"user":          ident.user,
		})
		return
	}
	response.OK(c, "", response.Payload{"authenticated": false})
}

func (h *GatewayHandler) submitApplication(c *gin.Context, p params, ident *identity) {
	req := &dto.SubmitApplicationRequest{
		ChildFirstName:     p.Get("childFirstName"),
		ChildLastName:      p.Get("childLastName"),
		ChildDOB:           p.Get("childDob"),
		ChildGender:        p.Get("childGender"),
		ParentName:         p.Get("parentName"),
		ParentRelationship: p.Get("parentRelationship"),
		ParentEmail:        p.Get("parentEmail"),
		ParentPhone:        p.Get("parentPhone"),
		PreferredBranch:    p.Get("preferredBranch"),
		ProgramType:        p.Get("programType"),
	}

	appID, err := h.appSvc.Submit(c.Request.Context(), ident.user.ID, req)
	if err != nil {
		h.failWith(c, err, "Failed to submit application")
		return
	}

	response.OK(c, "Application submitted successfully", response.Payload{
		"application_id": appID,
	})
}

// getApplications 管理员看全部（带筛选），其他角色只看自己的
func (h *GatewayHandler) getApplications(c *gin.Context, p params, ident *identity) {
	var (
		apps []dto.ApplicationResponse
		err  error
	)

	if ident.user.Role == model.RoleAdmin {
		limit, _ := strconv.Atoi(p.Get("limit"))
		apps, err = h.appSvc.ListAll(c.Request.Context(), &dto.ApplicationListRequest{
			Status: p.Get("status"),
			Branch: p.Get("branch"),
			Limit:  limit,
		})
	} else {
		apps, err = h.appSvc.ListForUser(c.Request.Context(), ident.user.ID)
	}

	if err != nil {
		h.failWith(c, err, "Failed to load applications")
		return
	}

	response.OK(c, "", response.Payload{"applications": apps})
}

func (h *GatewayHandler) updateStatus(c *gin.Context, p params, _ *identity) {
	err := h.appSvc.UpdateStatus(c.Request.Context(), p.Get("applicationId"), p.Get("status"))
	if err != nil {
		h.failWith(c, err, "Failed to update status")
		return
	}

	response.OK(c, "Status updated successfully", nil)
}

func (h *GatewayHandler) getStatistics(c *gin.Context, _ params, _ *identity) {
	stats, err := h.appSvc.Statistics(c.Request.Context())
	if err != nil {
		h.failWith(c, err, "Failed to load statistics")
		return
	}

	response.OK(c, "", response.Payload{"statistics": stats})
}

// exportApplications 唯一不走 JSON 信封的动作：输出 .xlsx 附件
func (h *GatewayHandler) exportApplications(c *gin.Context, p params, _ *identity) {
	buf, filename, err := h.appSvc.ExportApplications(c.Request.Context(), &dto.ApplicationListRequest{
		Status: p.Get("status"),
		Branch: p.Get("branch"),
	})
	if err != nil {
		h.failWith(c, err, "Failed to export applications")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *GatewayHandler) getBranches(c *gin.Context, _ params, _ *identity) {
	branches, err := h.branchSvc.List(c.Request.Context())
	if err != nil {
		h.failWith(c, err, "Failed to load branches")
		return
	}

	response.OK(c, "", response.Payload{"branches": branches})
}

// initialize 幂等：表结构由启动时迁移保证，这里只播种校区
func (h *GatewayHandler) initialize(c *gin.Context, _ params, _ *identity) {
	if err := h.branchSvc.Seed(c.Request.Context()); err != nil {
		h.failWith(c, err, "Initialization failed")
		return
	}

	response.OK(c, "Database initialized", nil)
}
