package client

import (
	"reflect"
	"sync"

	"pwdriver/internal/match"
)

// RouteHandler 拦截处理器，独占该请求的决议权
type RouteHandler func(*Route, *Request)

type routeEntry struct {
	matcher *match.URLMatcher
	handler RouteHandler
}

// routeTable 按注册顺序维护 (模式, 处理器) 对。
// 求值同样按注册顺序，命中的第一个处理器独占本次请求。
type routeTable struct {
	mu      sync.Mutex
	entries []routeEntry
}

// add 追加一条注册，返回注册总数
func (t *routeTable) add(pattern string, h RouteHandler) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, routeEntry{matcher: match.NewURL(pattern), handler: h})
	return len(t.entries)
}

// remove 移除注册：h 为 nil 时移除该模式的全部条目，
// 否则只移除精确的 (模式, 处理器) 对。返回剩余条目数。
func (t *routeTable) remove(pattern string, h RouteHandler) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	var ptr uintptr
	if h != nil {
		ptr = reflect.ValueOf(h).Pointer()
	}
	out := t.entries[:0]
	for _, e := range t.entries {
		if e.matcher.Pattern() == pattern {
			if h == nil || reflect.ValueOf(e.handler).Pointer() == ptr {
				continue
			}
		}
		out = append(out, e)
	}
	t.entries = out
	return len(t.entries)
}

// find 返回命中 URL 的第一个处理器，未命中时返回 nil
func (t *routeTable) find(url string) RouteHandler {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.entries {
		if e.matcher.Match(url) {
			return e.handler
		}
	}
	return nil
}

// size 当前注册数
func (t *routeTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
