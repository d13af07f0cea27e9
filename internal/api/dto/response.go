package dto

// Response 统一响应结构，HTTP 状态码恒为 200，业务结果看 Code
type Response struct {
	Code    int
	Message string
	Data    interface{}
}
