package client

import (
	"errors"

	"pwdriver/internal/protocol"
	"pwdriver/internal/registry"
)

var (
	// ErrConnectionClosed 连接已断开，所有悬挂调用以此失败
	ErrConnectionClosed = errors.New("connection closed")
	// ErrRouteAlreadyHandled 同一 Route 只允许决议一次
	ErrRouteAlreadyHandled = errors.New("route is already handled")
	// ErrInvalidStatus fulfill 状态码必须位于 100-599
	ErrInvalidStatus = errors.New("status code out of range")

	// ErrDuplicateGuid 客户端与驱动状态失步，连接级致命错误
	ErrDuplicateGuid = registry.ErrDuplicateGuid
	// ErrUnknownObject 帧引用的 guid 不存在，按丢弃处理
	ErrUnknownObject = registry.ErrUnknownObject
)

// ProtocolError 协议级错误：帧非法或相关 id 无主，连接级致命
type ProtocolError struct {
	Reason string
	Cause  error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return "protocol error: " + e.Reason + ": " + e.Cause.Error()
	}
	return "protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

// CallError 驱动侧上报的调用失败，只影响对应的单次调用
type CallError = protocol.CallError
