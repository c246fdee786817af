// Package client 实现与浏览器自动化驱动进程之间的消息协议客户端：
// 远端对象注册表与作用域回收、类型化代理工厂、单路分发核心，
// 以及网络请求拦截（continue / abort / fulfill）状态机。
package client

import (
	"pwdriver/internal/logger"
)

// Connect 在给定传输上建立连接，并等待驱动宣告根对象
func Connect(t Transport, l logger.Logger) (*Playwright, *Connection, error) {
	conn := NewConnection(t, l)
	conn.Start()
	obj, err := conn.WaitForObject(PlaywrightGuid)
	if err != nil {
		return nil, nil, err
	}
	pw, ok := obj.(*Playwright)
	if !ok {
		conn.teardown(&ProtocolError{Reason: "根对象类型不符: " + obj.TypeName()})
		return nil, nil, conn.closeErr
	}
	return pw, conn, nil
}
