package httpapi

// Result 通知接口统一响应
// code 为 2000 表示成功，其它为错误码；type 为 success 或 error
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

// 错误码
const (
	ResultSuccess      = 2000
	ResultError        = -1
	ResultInvalidQuery = 4000 // 查询参数非法（type、limit、unread）
	ResultNotFound     = 4004 // 通知不存在或已删除
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

// Fail 通用错误
func Fail(message string) Result[any] {
	return FailWithCode(ResultError, message)
}

// FailWithCode 指定错误码
func FailWithCode(code int, message string) Result[any] {
	return Result[any]{Code: code, Type: "error", Message: message}
}
