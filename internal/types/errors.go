package types

import "errors"

// 哨兵错误，调用方通过errors.Is区分失败类别
var (
	// ErrNotFound 请求的岗位、候选人或评分记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrUpstreamUnavailable 上游大模型服务不可达或超时
	ErrUpstreamUnavailable = errors.New("上游服务不可用")
	// ErrMalformedResponse 上游返回内容无法解析为有效结构
	ErrMalformedResponse = errors.New("上游响应格式错误")
	// ErrPersistence 评分或排名结果落库失败
	ErrPersistence = errors.New("持久化失败")
)
