package client

import (
	"github.com/tidwall/gjson"

	"pwdriver/internal/protocol"
)

// Page 页面代理：网络事件的汇聚点与页面级路由注册表
type Page struct {
	channelOwner

	routes routeTable
}

// afterInit 把页面挂入所属上下文
func (p *Page) afterInit() {
	if ctx := p.Context(); ctx != nil {
		ctx.addPage(p)
	}
}

// Context 页面所属的浏览器上下文
func (p *Page) Context() *BrowserContext {
	ctx, _ := p.parent.(*BrowserContext)
	return ctx
}

// MainFrame 页面主帧
func (p *Page) MainFrame() *Frame {
	guid := protocol.RefGuid(p.initializer.Get("mainFrame"))
	if guid == "" {
		return nil
	}
	obj, err := p.conn.lookup(guid)
	if err != nil {
		return nil
	}
	f, _ := obj.(*Frame)
	return f
}

// URL 页面当前地址
func (p *Page) URL() string {
	if f := p.MainFrame(); f != nil {
		return f.URL()
	}
	return ""
}

// Goto 导航主帧到指定地址
func (p *Page) Goto(url string) (*Response, error) {
	f := p.MainFrame()
	if f == nil {
		return nil, ErrUnknownObject
	}
	return f.Goto(url)
}

// Close 关闭页面
func (p *Page) Close() error {
	_, err := p.send("close", nil)
	return err
}

// Route 注册拦截处理器。首条注册时向驱动开启网络拦截。
func (p *Page) Route(pattern string, handler RouteHandler) error {
	if p.routes.add(pattern, handler) == 1 {
		_, err := p.send("setNetworkInterceptionEnabled", map[string]any{"enabled": true})
		return err
	}
	return nil
}

// Unroute 取消拦截注册：handler 为 nil 时移除该模式的全部处理器。
// 最后一条注册移除后向驱动关闭网络拦截。
func (p *Page) Unroute(pattern string, handler RouteHandler) error {
	if p.routes.remove(pattern, handler) == 0 {
		_, err := p.send("setNetworkInterceptionEnabled", map[string]any{"enabled": false})
		return err
	}
	return nil
}

// Disposed 页面销毁时先从上下文摘除
func (p *Page) Disposed() {
	if ctx := p.Context(); ctx != nil {
		ctx.removePage(p)
	}
	p.channelOwner.Disposed()
}

// onProtocolEvent 页面协议事件分发
func (p *Page) onProtocolEvent(method string, params gjson.Result) {
	switch method {
	case "route":
		route := p.routeRef(params)
		if route == nil {
			return
		}
		req := route.Request()
		if req != nil {
			p.conn.emitNet(NetworkEvent{
				Type: "requested", URL: req.URL(), Method: req.Method(), ResourceType: req.ResourceType(),
			})
		}
		// 每个被拦截请求派发独立处理协程，绝不阻塞分发路径
		p.conn.spawn(func() { p.dispatchRoute(route, req) })
	case "request":
		if req := p.requestRef(params, "request"); req != nil {
			p.Emit(EventRequest, req)
		}
	case "requestFailed":
		if req := p.requestRef(params, "request"); req != nil {
			req.setFailure(params.Get("failureText").String())
			p.Emit(EventRequestFailed, req)
			p.conn.emitNet(NetworkEvent{Type: "failed", URL: req.URL(), Method: req.Method(), ResourceType: req.ResourceType()})
		}
	case "requestFinished":
		if req := p.requestRef(params, "request"); req != nil {
			p.Emit(EventRequestFinished, req)
			ev := NetworkEvent{Type: "finished", URL: req.URL(), Method: req.Method(), ResourceType: req.ResourceType()}
			if resp := req.Response(); resp != nil {
				ev.Status = resp.Status()
			}
			p.conn.emitNet(ev)
		}
	case "response":
		guid := protocol.RefGuid(params.Get("response"))
		if obj, err := p.conn.lookup(guid); err == nil {
			if resp, ok := obj.(*Response); ok {
				p.Emit(EventResponse, resp)
			}
		}
	case "console":
		if obj := p.objectRef(params, "message"); obj != nil {
			p.Emit(EventConsole, obj)
		}
	case "dialog":
		if obj := p.objectRef(params, "dialog"); obj != nil {
			p.Emit(EventDialog, obj)
		}
	case "download":
		if obj := p.objectRef(params, "download"); obj != nil {
			p.Emit(EventDownload, obj)
		}
	case "worker":
		if obj := p.objectRef(params, "worker"); obj != nil {
			p.Emit(EventWorker, obj)
		}
	case "close":
		p.markClosed()
	}
}

// dispatchRoute 路由选择：页面注册表优先，其次上下文注册表，
// 均未命中时直接放行
func (p *Page) dispatchRoute(route *Route, req *Request) {
	url := ""
	if req != nil {
		url = req.URL()
	}
	if h := p.routes.find(url); h != nil {
		h(route, req)
		return
	}
	if ctx := p.Context(); ctx != nil {
		if h := ctx.routes.find(url); h != nil {
			h(route, req)
			return
		}
	}
	if err := route.Continue(nil); err != nil {
		p.conn.log.Warn("默认放行失败", "url", url, "error", err)
	}
}

func (p *Page) routeRef(params gjson.Result) *Route {
	guid := protocol.RefGuid(params.Get("route"))
	obj, err := p.conn.lookup(guid)
	if err != nil {
		p.conn.log.Warn("路由事件引用的对象不存在，丢弃", "guid", guid)
		return nil
	}
	route, _ := obj.(*Route)
	return route
}

func (p *Page) requestRef(params gjson.Result, key string) *Request {
	guid := protocol.RefGuid(params.Get(key))
	obj, err := p.conn.lookup(guid)
	if err != nil {
		p.conn.log.Warn("网络事件引用的对象不存在，丢弃", "guid", guid)
		return nil
	}
	req, _ := obj.(*Request)
	return req
}

func (p *Page) objectRef(params gjson.Result, key string) remoteObject {
	guid := protocol.RefGuid(params.Get(key))
	obj, err := p.conn.lookup(guid)
	if err != nil {
		return nil
	}
	return obj
}
