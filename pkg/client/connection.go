package client

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"pwdriver/internal/logger"
	"pwdriver/internal/protocol"
	"pwdriver/internal/registry"
)

// NetworkEvent 网络拦截观测事件，供记录器等旁路消费，发送永不阻塞分发
type NetworkEvent struct {
	Type         string // requested / continued / fulfilled / aborted / failed / finished
	URL          string
	Method       string
	ResourceType string
	Status       int
	Timestamp    int64
}

type callResult struct {
	result gjson.Result
	err    error
}

// Connection 连接核心：单一分发协程按到达顺序消费入站帧，
// 维护对象注册表、悬挂调用表，并派发路由处理协程
type Connection struct {
	id        string
	transport Transport
	log       logger.Logger
	reg       *registry.Registry

	callMu  sync.Mutex
	lastID  int
	pending map[int]chan callResult

	waitMu  sync.Mutex
	waiters map[string][]chan remoteObject

	closedCh  chan struct{}
	closeOnce sync.Once
	closeErr  error

	handlers sync.WaitGroup

	netEvents chan NetworkEvent
}

// NewConnection 在既有传输上创建连接
func NewConnection(t Transport, l logger.Logger) *Connection {
	if l == nil {
		l = logger.NewNop()
	}
	c := &Connection{
		id:        uuid.NewString(),
		transport: t,
		reg:       registry.New(l),
		pending:   make(map[int]chan callResult),
		waiters:   make(map[string][]chan remoteObject),
		closedCh:  make(chan struct{}),
		netEvents: make(chan NetworkEvent, 256),
	}
	c.log = l.With("connection", c.id)
	return c
}

// Start 启动分发协程
func (c *Connection) Start() {
	go c.run()
}

func (c *Connection) run() {
	c.log.Info("连接分发循环启动")
	for {
		data, err := c.transport.Recv()
		if err != nil {
			c.teardown(fmt.Errorf("%w: %v", ErrConnectionClosed, err))
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			c.teardown(&ProtocolError{Reason: "帧解析失败", Cause: err})
			return
		}
		if !c.dispatch(msg) {
			return
		}
	}
}

// dispatch 处理一帧入站消息，返回 false 表示连接已转入终止
func (c *Connection) dispatch(msg *protocol.Message) bool {
	if msg.IsResult() {
		c.callMu.Lock()
		ch, ok := c.pending[msg.ID]
		delete(c.pending, msg.ID)
		c.callMu.Unlock()
		if !ok {
			c.teardown(&ProtocolError{Reason: fmt.Sprintf("无主的相关 id: %d", msg.ID)})
			return false
		}
		if msg.Error != nil {
			ch <- callResult{err: msg.Error}
		} else {
			ch <- callResult{result: msg.Result}
		}
		return true
	}

	switch msg.Method {
	case protocol.MethodCreate:
		return c.createObject(
			msg.GUID,
			msg.Params.Get("type").String(),
			msg.Params.Get("guid").String(),
			msg.Params.Get("initializer"),
		)
	case protocol.MethodDispose:
		c.disposeObject(msg.GUID)
		return true
	default:
		obj, err := c.lookup(msg.GUID)
		if err != nil {
			// 驱动可能在销毁与在途事件之间竞态，丢弃并告警
			c.log.Warn("事件目标对象不存在，丢弃", "guid", msg.GUID, "method", msg.Method)
			return true
		}
		obj.onProtocolEvent(msg.Method, msg.Params)
		return true
	}
}

// createObject 实例化并登记远端对象，登记与创建原子完成
func (c *Connection) createObject(parentGuid, typeName, guid string, initializer gjson.Result) bool {
	scope := c.reg.Root()
	var parent remoteObject
	if parentGuid != "" {
		p, err := c.lookup(parentGuid)
		if err != nil {
			c.log.Warn("创建帧的父对象不存在，丢弃", "parent", parentGuid, "guid", guid, "type", typeName)
			return true
		}
		parent = p
		scope = p.base().childScope()
	}
	obj := createRemoteObject(c, scope, parent, typeName, guid, initializer)
	if err := c.reg.Register(scope, guid, obj); err != nil {
		c.teardown(fmt.Errorf("注册远端对象失败: %w", err))
		return false
	}
	c.log.Debug("远端对象创建", "guid", guid, "type", typeName, "parent", parentGuid)
	c.notifyWaiters(guid, obj)
	return true
}

// disposeObject 销毁对象：先回收其子作用域，再移除自身
func (c *Connection) disposeObject(guid string) {
	obj, err := c.lookup(guid)
	if err != nil {
		c.log.Warn("销毁帧的目标对象不存在，丢弃", "guid", guid)
		return
	}
	base := obj.base()
	if base.ownScope != nil {
		c.reg.DisposeScope(base.ownScope)
	}
	c.reg.Remove(obj)
}

func (c *Connection) lookup(guid string) (remoteObject, error) {
	obj, err := c.reg.Lookup(guid)
	if err != nil {
		return nil, err
	}
	return obj.(remoteObject), nil
}

// SendMessage 发起方法调用并阻塞等待结果。
// 永远不要在分发协程上调用，否则会与驱动互相等待。
func (c *Connection) SendMessage(guid, method string, params map[string]any) (gjson.Result, error) {
	select {
	case <-c.closedCh:
		return gjson.Result{}, c.closeErr
	default:
	}

	c.callMu.Lock()
	c.lastID++
	id := c.lastID
	ch := make(chan callResult, 1)
	c.pending[id] = ch
	c.callMu.Unlock()

	data, err := protocol.EncodeCall(id, guid, method, params)
	if err != nil {
		c.dropPending(id)
		return gjson.Result{}, fmt.Errorf("编码调用帧失败: %w", err)
	}
	if err := c.transport.Send(data); err != nil {
		c.dropPending(id)
		return gjson.Result{}, fmt.Errorf("发送调用帧失败: %w", err)
	}

	select {
	case r := <-ch:
		return r.result, r.err
	case <-c.closedCh:
		return gjson.Result{}, c.closeErr
	}
}

func (c *Connection) dropPending(id int) {
	c.callMu.Lock()
	delete(c.pending, id)
	c.callMu.Unlock()
}

// WaitForObject 等待指定 guid 的对象被驱动创建
func (c *Connection) WaitForObject(guid string) (remoteObject, error) {
	if obj, err := c.lookup(guid); err == nil {
		return obj, nil
	}
	ch := make(chan remoteObject, 1)
	c.waitMu.Lock()
	c.waiters[guid] = append(c.waiters[guid], ch)
	c.waitMu.Unlock()

	// 订阅后再查一次，避免创建帧恰好插在两步之间
	if obj, err := c.lookup(guid); err == nil {
		return obj, nil
	}
	select {
	case obj := <-ch:
		return obj, nil
	case <-c.closedCh:
		return nil, c.closeErr
	}
}

func (c *Connection) notifyWaiters(guid string, obj remoteObject) {
	c.waitMu.Lock()
	ws := c.waiters[guid]
	delete(c.waiters, guid)
	c.waitMu.Unlock()
	for _, ch := range ws {
		ch <- obj
	}
}

// spawn 派发一个与分发路径并行的处理协程，连接终止时不再接收新任务
func (c *Connection) spawn(fn func()) {
	select {
	case <-c.closedCh:
		return
	default:
	}
	c.handlers.Add(1)
	go func() {
		defer c.handlers.Done()
		fn()
	}()
}

// NetworkEvents 返回观测事件通道
func (c *Connection) NetworkEvents() <-chan NetworkEvent { return c.netEvents }

// emitNet 非阻塞发送观测事件，消费不及时直接丢弃
func (c *Connection) emitNet(ev NetworkEvent) {
	ev.Timestamp = time.Now().UnixMilli()
	select {
	case c.netEvents <- ev:
	default:
	}
}

// Close 主动关闭连接
func (c *Connection) Close() error {
	c.teardown(ErrConnectionClosed)
	return nil
}

// Done 连接终止信号
func (c *Connection) Done() <-chan struct{} { return c.closedCh }

// Err 连接终止原因，未终止时为 nil
func (c *Connection) Err() error {
	select {
	case <-c.closedCh:
		return c.closeErr
	default:
		return nil
	}
}

// teardown 终止连接：让所有悬挂调用失败、回收全部对象、关闭传输
func (c *Connection) teardown(err error) {
	c.closeOnce.Do(func() {
		c.closeErr = err
		c.log.Info("连接终止", "reason", err)

		c.callMu.Lock()
		pending := c.pending
		c.pending = make(map[int]chan callResult)
		c.callMu.Unlock()
		close(c.closedCh)
		for _, ch := range pending {
			select {
			case ch <- callResult{err: err}:
			default:
			}
		}

		c.reg.DisposeScope(c.reg.Root())
		_ = c.transport.Close()
	})
}
