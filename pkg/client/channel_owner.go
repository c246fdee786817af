package client

import (
	"sync"

	"github.com/tidwall/gjson"

	"pwdriver/internal/registry"
)

// remoteObject 连接内所有远端对象代理的统一视图
type remoteObject interface {
	registry.Object
	base() *channelOwner
	onProtocolEvent(method string, params gjson.Result)
}

// channelOwner 远端对象代理的公共基座：guid、类型标签、初始化负载与所在作用域。
// 初始化负载在创建后不可变，属性变化通过对象事件体现。
type channelOwner struct {
	emitter
	conn        *Connection
	guid        string
	typeName    string
	initializer gjson.Result
	scope       *registry.Scope
	parent      remoteObject

	// ownScope 本对象拥有的子作用域，首个子对象到来时惰性创建，
	// 只在分发协程上读写
	ownScope *registry.Scope

	closeMu sync.Mutex
	closed  bool
}

func (o *channelOwner) init(conn *Connection, scope *registry.Scope, typeName, guid string, initializer gjson.Result) {
	o.conn = conn
	o.scope = scope
	o.typeName = typeName
	o.guid = guid
	o.initializer = initializer
}

// Guid 返回对象在连接内的唯一标识
func (o *channelOwner) Guid() string { return o.guid }

// TypeName 返回驱动声明的类型标签
func (o *channelOwner) TypeName() string { return o.typeName }

func (o *channelOwner) base() *channelOwner { return o }

// onProtocolEvent 默认不处理任何协议事件，具体类型按需覆盖
func (o *channelOwner) onProtocolEvent(method string, params gjson.Result) {}

// Disposed 注册表移除前的回调，保证 close 观察者至多收到一次通知
func (o *channelOwner) Disposed() {
	o.markClosed()
}

// markClosed 幂等地标记关闭并通知观察者
func (o *channelOwner) markClosed() {
	o.closeMu.Lock()
	if o.closed {
		o.closeMu.Unlock()
		return
	}
	o.closed = true
	o.closeMu.Unlock()
	o.Emit(EventClose, nil)
}

// IsClosed 判断对象是否已关闭或销毁
func (o *channelOwner) IsClosed() bool {
	o.closeMu.Lock()
	defer o.closeMu.Unlock()
	return o.closed
}

// childScope 取得本对象的子作用域，必要时创建
func (o *channelOwner) childScope() *registry.Scope {
	if o.ownScope == nil {
		o.ownScope = o.scope.NewChild()
	}
	return o.ownScope
}

// send 向驱动发起以本对象为目标的方法调用
func (o *channelOwner) send(method string, params map[string]any) (gjson.Result, error) {
	return o.conn.SendMessage(o.guid, method, params)
}
