package client

import (
	"github.com/tidwall/gjson"

	"pwdriver/internal/protocol"
)

// PlaywrightGuid 根对象的固定 guid
const PlaywrightGuid = "Playwright"

// Playwright 驱动根对象，持有各引擎入口
type Playwright struct {
	channelOwner
}

func (p *Playwright) browserType(key string) *BrowserType {
	guid := protocol.RefGuid(p.initializer.Get(key))
	obj, err := p.conn.lookup(guid)
	if err != nil {
		return nil
	}
	bt, _ := obj.(*BrowserType)
	return bt
}

// Chromium chromium 引擎入口
func (p *Playwright) Chromium() *BrowserType { return p.browserType("chromium") }

// Firefox firefox 引擎入口
func (p *Playwright) Firefox() *BrowserType { return p.browserType("firefox") }

// Webkit webkit 引擎入口
func (p *Playwright) Webkit() *BrowserType { return p.browserType("webkit") }

// BrowserType 某一引擎的启动器
type BrowserType struct {
	channelOwner
}

// Name 引擎名：chromium / firefox / webkit
func (bt *BrowserType) Name() string { return bt.initializer.Get("name").String() }

// ExecutablePath 引擎可执行文件路径
func (bt *BrowserType) ExecutablePath() string {
	return bt.initializer.Get("executablePath").String()
}

// Launch 启动浏览器实例
func (bt *BrowserType) Launch() (*Browser, error) {
	res, err := bt.send("launch", nil)
	if err != nil {
		return nil, err
	}
	obj, err := bt.conn.lookup(protocol.RefGuid(res.Get("browser")))
	if err != nil {
		return nil, err
	}
	b, _ := obj.(*Browser)
	return b, nil
}

// Browser 浏览器实例
type Browser struct {
	channelOwner
}

// Version 浏览器版本串
func (b *Browser) Version() string { return b.initializer.Get("version").String() }

// NewContext 创建新的隔离上下文
func (b *Browser) NewContext() (*BrowserContext, error) {
	res, err := b.send("newContext", nil)
	if err != nil {
		return nil, err
	}
	obj, err := b.conn.lookup(protocol.RefGuid(res.Get("context")))
	if err != nil {
		return nil, err
	}
	ctx, _ := obj.(*BrowserContext)
	return ctx, nil
}

// Close 关闭浏览器
func (b *Browser) Close() error {
	_, err := b.send("close", nil)
	return err
}

func (b *Browser) onProtocolEvent(method string, params gjson.Result) {
	if method == "close" {
		b.markClosed()
	}
}

// BrowserServer 以服务方式运行的浏览器进程
type BrowserServer struct {
	channelOwner
}

// WSEndpoint 服务端 websocket 入口
func (s *BrowserServer) WSEndpoint() string { return s.initializer.Get("wsEndpoint").String() }

// PID 浏览器进程号
func (s *BrowserServer) PID() int { return int(s.initializer.Get("pid").Int()) }

// Worker 页面内的 web worker
type Worker struct {
	channelOwner
}

// URL worker 脚本地址
func (w *Worker) URL() string { return w.initializer.Get("url").String() }

// Dialog 页面弹出的对话框
type Dialog struct {
	channelOwner
}

// Type 对话框类型：alert / confirm / prompt / beforeunload
func (d *Dialog) Type() string { return d.initializer.Get("type").String() }

// Message 对话框文案
func (d *Dialog) Message() string { return d.initializer.Get("message").String() }

// Accept 接受对话框
func (d *Dialog) Accept(promptText string) error {
	params := map[string]any{}
	if promptText != "" {
		params["promptText"] = promptText
	}
	_, err := d.send("accept", params)
	return err
}

// Dismiss 取消对话框
func (d *Dialog) Dismiss() error {
	_, err := d.send("dismiss", nil)
	return err
}

// Download 一次下载
type Download struct {
	channelOwner
}

// URL 下载来源地址
func (d *Download) URL() string { return d.initializer.Get("url").String() }

// SuggestedFilename 驱动建议的文件名
func (d *Download) SuggestedFilename() string {
	return d.initializer.Get("suggestedFilename").String()
}

// ConsoleMessage 页面控制台输出
type ConsoleMessage struct {
	channelOwner
}

// Type 输出级别，如 log / warning / error
func (m *ConsoleMessage) Type() string { return m.initializer.Get("type").String() }

// Text 输出文本
func (m *ConsoleMessage) Text() string { return m.initializer.Get("text").String() }

// JSHandle 页面内 JS 对象的句柄
type JSHandle struct {
	channelOwner
}

// Preview 对象预览串
func (h *JSHandle) Preview() string { return h.initializer.Get("preview").String() }

// Dispose 释放远端对象引用
func (h *JSHandle) Dispose() error {
	_, err := h.send("dispose", nil)
	return err
}

// ElementHandle DOM 元素句柄
type ElementHandle struct {
	JSHandle
}

// BindingCall 页面对客户端注入函数的一次调用
type BindingCall struct {
	channelOwner
}

// Name 注入函数名
func (b *BindingCall) Name() string { return b.initializer.Get("name").String() }

// Selectors 选择器引擎注册入口
type Selectors struct {
	channelOwner
}

// Register 注册自定义选择器引擎
func (s *Selectors) Register(name, source string) error {
	_, err := s.send("register", map[string]any{"name": name, "source": source})
	return err
}
