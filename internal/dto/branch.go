package dto

// ── 校区模块 DTO ──

// BranchResponse 校区信息响应
type BranchResponse struct {
	ID         string `json:"id"`
	BranchCode string `json:"branch_code"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Facilities string `json:"facilities,omitempty"`
	CreatedAt  string `json:"created_at"`
}
