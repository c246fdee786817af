package client

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

// fakeDriver 进程内假驱动：实现 Transport，按脚本应答客户端调用，
// 测试用它向连接注入任意帧序列
type fakeDriver struct {
	t *testing.T

	in     chan []byte
	closed chan struct{}
	once   sync.Once

	mu   sync.Mutex
	sent []gjson.Result

	// onCall 调用帧脚本；为 nil 时所有调用自动应答空结果
	onCall func(d *fakeDriver, id int, guid, method string, params gjson.Result)
}

func newFakeDriver(t *testing.T) *fakeDriver {
	return &fakeDriver{
		t:      t,
		in:     make(chan []byte, 128),
		closed: make(chan struct{}),
	}
}

func (d *fakeDriver) Send(data []byte) error {
	select {
	case <-d.closed:
		return errors.New("transport closed")
	default:
	}
	frame := gjson.ParseBytes(append([]byte(nil), data...))
	d.mu.Lock()
	d.sent = append(d.sent, frame)
	onCall := d.onCall
	d.mu.Unlock()

	if id := frame.Get("id"); id.Exists() {
		if onCall != nil {
			onCall(d, int(id.Int()), frame.Get("guid").String(), frame.Get("method").String(), frame.Get("params"))
		} else {
			d.respond(int(id.Int()), map[string]any{})
		}
	}
	return nil
}

func (d *fakeDriver) Recv() ([]byte, error) {
	select {
	case data := <-d.in:
		return data, nil
	case <-d.closed:
		return nil, errors.New("transport closed")
	}
}

func (d *fakeDriver) Close() error {
	d.once.Do(func() { close(d.closed) })
	return nil
}

func (d *fakeDriver) push(frame map[string]any) {
	data, err := json.Marshal(frame)
	if err != nil {
		d.t.Fatalf("构造帧失败: %v", err)
	}
	select {
	case d.in <- data:
	case <-time.After(time.Second):
		d.t.Fatalf("注入帧超时")
	}
}

func (d *fakeDriver) pushRaw(frame string) {
	select {
	case d.in <- []byte(frame):
	case <-time.After(time.Second):
		d.t.Fatalf("注入帧超时")
	}
}

func (d *fakeDriver) pushCreate(parentGuid, typeName, guid string, initializer map[string]any) {
	if initializer == nil {
		initializer = map[string]any{}
	}
	d.push(map[string]any{
		"guid":   parentGuid,
		"method": "__create__",
		"params": map[string]any{"type": typeName, "guid": guid, "initializer": initializer},
	})
}

func (d *fakeDriver) pushDispose(guid string) {
	d.push(map[string]any{"guid": guid, "method": "__dispose__", "params": map[string]any{}})
}

func (d *fakeDriver) pushEvent(guid, method string, params map[string]any) {
	if params == nil {
		params = map[string]any{}
	}
	d.push(map[string]any{"guid": guid, "method": method, "params": params})
}

// respond 应答一次调用
func (d *fakeDriver) respond(id int, result map[string]any) {
	d.push(map[string]any{"id": id, "result": result})
}

// respondError 以驱动侧错误应答一次调用
func (d *fakeDriver) respondError(id int, name, message string) {
	d.push(map[string]any{
		"id":    id,
		"error": map[string]any{"error": map[string]any{"name": name, "message": message}},
	})
}

// calls 过滤客户端发出的指定方法调用帧
func (d *fakeDriver) calls(method string) []gjson.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []gjson.Result
	for _, f := range d.sent {
		if f.Get("method").String() == method {
			out = append(out, f)
		}
	}
	return out
}

// ref 构造对象引用参数
func ref(guid string) map[string]any {
	return map[string]any{"guid": guid}
}

// newTestConnection 建立连接与假驱动
func newTestConnection(t *testing.T) (*Connection, *fakeDriver) {
	d := newFakeDriver(t)
	conn := NewConnection(d, nil)
	conn.Start()
	t.Cleanup(func() { _ = conn.Close() })
	return conn, d
}

// waitLookup 等待对象在注册表中可见
func waitLookup(t *testing.T, conn *Connection, guid string) remoteObject {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if obj, err := conn.lookup(guid); err == nil {
			return obj
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("等待对象超时: %s", guid)
	return nil
}

// pageFixture 搭建 browser -> context -> frame -> page 的最小对象树
type pageFixture struct {
	conn    *Connection
	driver  *fakeDriver
	browser *Browser
	ctx     *BrowserContext
	frame   *Frame
	page    *Page
}

func newPageFixture(t *testing.T) *pageFixture {
	conn, d := newTestConnection(t)
	d.pushCreate("", "Browser", "browser1", map[string]any{"version": "120.0"})
	d.pushCreate("browser1", "BrowserContext", "ctx1", nil)
	d.pushCreate("ctx1", "Frame", "frame1", map[string]any{"url": "about:blank"})
	d.pushCreate("ctx1", "Page", "page1", map[string]any{"mainFrame": ref("frame1")})

	page := waitLookup(t, conn, "page1").(*Page)
	return &pageFixture{
		conn:    conn,
		driver:  d,
		browser: waitLookup(t, conn, "browser1").(*Browser),
		ctx:     waitLookup(t, conn, "ctx1").(*BrowserContext),
		frame:   waitLookup(t, conn, "frame1").(*Frame),
		page:    page,
	}
}

// interceptRequest 注入一对 Request/Route 并抛出 route 事件
func (f *pageFixture) interceptRequest(guidSuffix, url string, extra map[string]any) (reqGuid, routeGuid string) {
	reqGuid = "req" + guidSuffix
	routeGuid = "route" + guidSuffix
	init := map[string]any{
		"url":                 url,
		"method":              "GET",
		"resourceType":        "document",
		"isNavigationRequest": true,
		"frame":               ref("frame1"),
		"headers":             map[string]any{"User-Agent": "pwdriver-test"},
	}
	for k, v := range extra {
		init[k] = v
	}
	f.driver.pushCreate("ctx1", "Request", reqGuid, init)
	f.driver.pushCreate("ctx1", "Route", routeGuid, map[string]any{"request": ref(reqGuid)})
	f.driver.pushEvent("page1", "route", map[string]any{"route": ref(routeGuid)})
	return reqGuid, routeGuid
}
