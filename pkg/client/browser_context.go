package client

import (
	"sync"

	"github.com/tidwall/gjson"

	"pwdriver/internal/protocol"
)

// BrowserContext 浏览器上下文：隔离的页面集合，
// 上下文级路由对其全部页面生效
type BrowserContext struct {
	channelOwner

	routes routeTable

	pagesMu sync.Mutex
	pages   []*Page
}

// Browser 所属浏览器
func (c *BrowserContext) Browser() *Browser {
	b, _ := c.parent.(*Browser)
	return b
}

// Pages 当前存活的页面列表
func (c *BrowserContext) Pages() []*Page {
	c.pagesMu.Lock()
	defer c.pagesMu.Unlock()
	out := make([]*Page, len(c.pages))
	copy(out, c.pages)
	return out
}

func (c *BrowserContext) addPage(p *Page) {
	c.pagesMu.Lock()
	c.pages = append(c.pages, p)
	c.pagesMu.Unlock()
}

func (c *BrowserContext) removePage(p *Page) {
	c.pagesMu.Lock()
	out := c.pages[:0]
	for _, q := range c.pages {
		if q != p {
			out = append(out, q)
		}
	}
	c.pages = out
	c.pagesMu.Unlock()
}

// NewPage 在上下文中打开新页面
func (c *BrowserContext) NewPage() (*Page, error) {
	res, err := c.send("newPage", nil)
	if err != nil {
		return nil, err
	}
	obj, err := c.conn.lookup(protocol.RefGuid(res.Get("page")))
	if err != nil {
		return nil, err
	}
	p, _ := obj.(*Page)
	return p, nil
}

// Route 注册上下文级拦截处理器，对所有页面生效
func (c *BrowserContext) Route(pattern string, handler RouteHandler) error {
	if c.routes.add(pattern, handler) == 1 {
		_, err := c.send("setNetworkInterceptionEnabled", map[string]any{"enabled": true})
		return err
	}
	return nil
}

// Unroute 取消上下文级拦截注册
func (c *BrowserContext) Unroute(pattern string, handler RouteHandler) error {
	if c.routes.remove(pattern, handler) == 0 {
		_, err := c.send("setNetworkInterceptionEnabled", map[string]any{"enabled": false})
		return err
	}
	return nil
}

// Close 关闭上下文及其全部页面
func (c *BrowserContext) Close() error {
	_, err := c.send("close", nil)
	return err
}

func (c *BrowserContext) onProtocolEvent(method string, params gjson.Result) {
	switch method {
	case "page":
		guid := protocol.RefGuid(params.Get("page"))
		if obj, err := c.conn.lookup(guid); err == nil {
			if p, ok := obj.(*Page); ok {
				c.Emit(EventPage, p)
			}
		}
	case "close":
		c.markClosed()
	}
}
