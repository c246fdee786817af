package client

import (
	"reflect"
	"sync"
)

// 本地事件名
const (
	EventClose           = "close"
	EventPage            = "page"
	EventRoute           = "route"
	EventRequest         = "request"
	EventRequestFailed   = "requestfailed"
	EventRequestFinished = "requestfinished"
	EventResponse        = "response"
	EventConsole         = "console"
	EventDialog          = "dialog"
	EventDownload        = "download"
	EventWorker          = "worker"
)

// EventHandler 本地事件回调
type EventHandler func(payload any)

type listener struct {
	handler EventHandler
	once    bool
}

// emitter 对象级事件分发器：按订阅顺序 FIFO 投递，投递基于订阅快照，
// 投递期间新增的订阅者不会收到本次事件
type emitter struct {
	mu        sync.Mutex
	listeners map[string][]listener
}

// On 订阅事件
func (e *emitter) On(name string, h EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string][]listener)
	}
	e.listeners[name] = append(e.listeners[name], listener{handler: h})
}

// Once 订阅事件，触发一次后自动退订
func (e *emitter) Once(name string, h EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string][]listener)
	}
	e.listeners[name] = append(e.listeners[name], listener{handler: h, once: true})
}

// Off 退订事件，按函数标识匹配
func (e *emitter) Off(name string, h EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ls := e.listeners[name]
	ptr := reflect.ValueOf(h).Pointer()
	out := ls[:0]
	for _, l := range ls {
		if reflect.ValueOf(l.handler).Pointer() != ptr {
			out = append(out, l)
		}
	}
	e.listeners[name] = out
}

// Emit 同步投递事件给当前订阅快照
func (e *emitter) Emit(name string, payload any) {
	e.mu.Lock()
	ls := e.listeners[name]
	snapshot := make([]listener, len(ls))
	copy(snapshot, ls)
	if hasOnce(ls) {
		kept := ls[:0]
		for _, l := range ls {
			if !l.once {
				kept = append(kept, l)
			}
		}
		e.listeners[name] = kept
	}
	e.mu.Unlock()

	for _, l := range snapshot {
		l.handler(payload)
	}
}

// ListenerCount 返回某事件当前订阅数
func (e *emitter) ListenerCount(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[name])
}

func hasOnce(ls []listener) bool {
	for _, l := range ls {
		if l.once {
			return true
		}
	}
	return false
}
