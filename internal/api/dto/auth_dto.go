package dto

// LoginRequest 管理员登录请求
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// MigrateData 管理端迁移接口响应
type MigrateData struct {
	AddedColumns []string `json:"added_columns"`
	Message      string   `json:"message"`
}
