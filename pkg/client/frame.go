package client

import (
	"sync"

	"github.com/tidwall/gjson"

	"pwdriver/internal/protocol"
)

// Frame 页面中的一个帧，帧树通过 guid 弱引用串联
type Frame struct {
	channelOwner

	mu   sync.Mutex
	url  string
	name string
}

func (f *Frame) afterInit() {
	f.url = f.initializer.Get("url").String()
	f.name = f.initializer.Get("name").String()
}

// URL 帧当前地址，随导航事件更新
func (f *Frame) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

// Name 帧名
func (f *Frame) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

// Page 帧所属页面
func (f *Frame) Page() *Page {
	p, _ := f.parent.(*Page)
	return p
}

// ParentFrame 父帧，主帧返回 nil
func (f *Frame) ParentFrame() *Frame {
	guid := protocol.RefGuid(f.initializer.Get("parentFrame"))
	if guid == "" {
		return nil
	}
	obj, err := f.conn.lookup(guid)
	if err != nil {
		return nil
	}
	parent, _ := obj.(*Frame)
	return parent
}

// Goto 导航本帧到指定地址，返回主资源响应；
// 导航被中止时返回驱动上报的调用失败
func (f *Frame) Goto(url string) (*Response, error) {
	res, err := f.send("goto", map[string]any{"url": url})
	if err != nil {
		return nil, err
	}
	guid := protocol.RefGuid(res.Get("response"))
	if guid == "" {
		return nil, nil
	}
	obj, err := f.conn.lookup(guid)
	if err != nil {
		return nil, nil
	}
	resp, _ := obj.(*Response)
	return resp, nil
}

func (f *Frame) onProtocolEvent(method string, params gjson.Result) {
	switch method {
	case "navigated":
		f.mu.Lock()
		f.url = params.Get("url").String()
		if n := params.Get("name"); n.Exists() {
			f.name = n.String()
		}
		f.mu.Unlock()
		f.Emit("navigated", f)
	}
}
