package dto

// ── 入园申请模块 DTO ──

// SubmitApplicationRequest 提交申请请求（10 个必填字段）
type SubmitApplicationRequest struct {
	ChildFirstName     string `json:"childFirstName"`
	ChildLastName      string `json:"childLastName"`
	ChildDOB           string `json:"childDob"` // YYYY-MM-DD
	ChildGender        string `json:"childGender"`
	ParentName         string `json:"parentName"`
	ParentRelationship string `json:"parentRelationship"`
	ParentEmail        string `json:"parentEmail"`
	ParentPhone        string `json:"parentPhone"`
	PreferredBranch    string `json:"preferredBranch"`
	ProgramType        string `json:"programType"`
}

// ApplicationListRequest 管理员申请列表筛选条件
type ApplicationListRequest struct {
	Status string `json:"status"`
	Branch string `json:"branch"`
	Limit  int    `json:"limit"` // 0 时取默认值 50
}

// ApplicationResponse 申请记录响应
// UserName / UserEmail 仅管理员列表（连表查询）时填充
type ApplicationResponse struct {
	ID                 string `json:"id"`
	ApplicationID      string `json:"application_id"`
	UserID             string `json:"user_id"`
	ChildFirstName     string `json:"child_first_name"`
	ChildLastName      string `json:"child_last_name"`
	ChildDOB           string `json:"child_dob"`
	ChildGender        string `json:"child_gender"`
	ParentName         string `json:"parent_name"`
	ParentRelationship string `json:"parent_relationship"`
	ParentEmail        string `json:"parent_email"`
	ParentPhone        string `json:"parent_phone"`
	PreferredBranch    string `json:"preferred_branch"`
	ProgramType        string `json:"program_type"`
	Status             string `json:"status"`
	SubmittedAt        string `json:"submitted_at"`
	UpdatedAt          string `json:"updated_at"`
	Notes              string `json:"notes,omitempty"`
	UserName           string `json:"user_name,omitempty"`
	UserEmail          string `json:"user_email,omitempty"`
}
