package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 统一响应信封（与前端约定一致）：
//
//	{"success": bool, "message": string, ...动作各自的载荷键}
//
// 载荷键随动作变化（user / applications / statistics / branches /
// application_id 等），因此以扁平 map 形式与固定键合并后输出。
// 业务失败同样返回 HTTP 200，仅靠 success 字段区分。

// Payload 动作载荷键值对
type Payload map[string]interface{}

// OK 业务成功响应
func OK(c *gin.Context, message string, payload Payload) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail 业务失败响应（HTTP 状态仍为 200）
func Fail(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"message": message,
	})
}

// FailStatus 带非 200 状态码的失败响应（限流、请求体过大等传输层拒绝）
func FailStatus(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{
		"success": false,
		"message": message,
	})
}
