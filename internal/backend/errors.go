package backend

import "fmt"

// ServerError 后端返回了非 2xx 状态码
type ServerError struct {
	StatusCode int
	Status     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Server Error: %s", e.Status)
}

// BackendError 后端响应成功但负载中带有 error 字段
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// NetworkError 请求无法发出，或响应无法读取、解析
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
