package client

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"pwdriver/internal/protocol"
)

// Headers 大小写不敏感的头部集合，键统一小写存储
type Headers map[string]string

// Get 获取指定 Header 的值（大小写不敏感）
func (h Headers) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[strings.ToLower(key)]
}

// Set 设置指定 Header 的值
func (h Headers) Set(key, value string) {
	h[strings.ToLower(key)] = value
}

// Del 删除指定 Header
func (h Headers) Del(key string) {
	delete(h, strings.ToLower(key))
}

// Clone 复制一份头部集合
func (h Headers) Clone() Headers {
	out := make(Headers, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// headersFromJSON 解析协议中的头部：对象或 [{name,value}] 数组两种形态
func headersFromJSON(v gjson.Result) Headers {
	h := make(Headers)
	if v.IsArray() {
		v.ForEach(func(_, e gjson.Result) bool {
			h.Set(e.Get("name").String(), e.Get("value").String())
			return true
		})
		return h
	}
	v.ForEach(func(k, e gjson.Result) bool {
		h.Set(k.String(), e.String())
		return true
	})
	return h
}

// Request 驱动观测到的一次导航或子资源请求
type Request struct {
	channelOwner

	mu               sync.Mutex
	failureText      string
	redirectedToGuid string
	responseGuid     string
}

// afterInit 建立重定向链：新请求把前驱的 redirectedTo 指向自己
func (r *Request) afterInit() {
	if prev := r.RedirectedFrom(); prev != nil {
		prev.setRedirectedTo(r.guid)
	}
}

// URL 请求地址
func (r *Request) URL() string { return r.initializer.Get("url").String() }

// Method HTTP 方法
func (r *Request) Method() string { return r.initializer.Get("method").String() }

// ResourceType 资源类型，如 document / stylesheet / xhr
func (r *Request) ResourceType() string { return r.initializer.Get("resourceType").String() }

// IsNavigationRequest 是否为导航请求
func (r *Request) IsNavigationRequest() bool { return r.initializer.Get("isNavigationRequest").Bool() }

// Headers 请求头
func (r *Request) Headers() Headers { return headersFromJSON(r.initializer.Get("headers")) }

// PostData 请求体，协议中以 base64 携带；无请求体时返回 nil
func (r *Request) PostData() []byte {
	v := r.initializer.Get("postData")
	if !v.Exists() {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(v.String())
	if err != nil {
		return []byte(v.String())
	}
	return data
}

// Frame 请求所属的帧，弱引用：帧已销毁时返回 nil
func (r *Request) Frame() *Frame {
	guid := protocol.RefGuid(r.initializer.Get("frame"))
	if guid == "" {
		return nil
	}
	obj, err := r.conn.lookup(guid)
	if err != nil {
		return nil
	}
	f, _ := obj.(*Frame)
	return f
}

// RedirectedFrom 本请求重定向自的前驱请求，链尾为最初请求
func (r *Request) RedirectedFrom() *Request {
	guid := protocol.RefGuid(r.initializer.Get("redirectedFrom"))
	return r.requestByGuid(guid)
}

// RedirectedTo 本请求重定向产生的后继请求，仅在后继出现后可见
func (r *Request) RedirectedTo() *Request {
	r.mu.Lock()
	guid := r.redirectedToGuid
	r.mu.Unlock()
	return r.requestByGuid(guid)
}

func (r *Request) setRedirectedTo(guid string) {
	r.mu.Lock()
	r.redirectedToGuid = guid
	r.mu.Unlock()
}

func (r *Request) requestByGuid(guid string) *Request {
	if guid == "" {
		return nil
	}
	obj, err := r.conn.lookup(guid)
	if err != nil {
		return nil
	}
	req, _ := obj.(*Request)
	return req
}

// Failure 请求失败原因，仅在 requestfailed 之后非空
func (r *Request) Failure() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failureText
}

func (r *Request) setFailure(text string) {
	r.mu.Lock()
	r.failureText = text
	r.mu.Unlock()
}

// Response 请求对应的响应，尚未收到时返回 nil
func (r *Request) Response() *Response {
	r.mu.Lock()
	guid := r.responseGuid
	r.mu.Unlock()
	if guid == "" {
		return nil
	}
	obj, err := r.conn.lookup(guid)
	if err != nil {
		return nil
	}
	resp, _ := obj.(*Response)
	return resp
}

func (r *Request) setResponse(guid string) {
	r.mu.Lock()
	r.responseGuid = guid
	r.mu.Unlock()
}

// Response 一次请求的响应
type Response struct {
	channelOwner
}

// afterInit 回填请求侧的响应引用
func (r *Response) afterInit() {
	if req := r.Request(); req != nil {
		req.setResponse(r.guid)
	}
}

// Status 状态码
func (r *Response) Status() int { return int(r.initializer.Get("status").Int()) }

// StatusText 状态短语
func (r *Response) StatusText() string { return r.initializer.Get("statusText").String() }

// URL 响应地址
func (r *Response) URL() string { return r.initializer.Get("url").String() }

// Headers 响应头
func (r *Response) Headers() Headers { return headersFromJSON(r.initializer.Get("headers")) }

// Ok 状态码是否在成功区间
func (r *Response) Ok() bool {
	s := r.Status()
	return s == 0 || (s >= 200 && s <= 299)
}

// Request 响应对应的请求
func (r *Response) Request() *Request {
	guid := protocol.RefGuid(r.initializer.Get("request"))
	if guid == "" {
		return nil
	}
	obj, err := r.conn.lookup(guid)
	if err != nil {
		return nil
	}
	req, _ := obj.(*Request)
	return req
}

// Body 读取响应体，通过驱动调用按 base64 回传
func (r *Response) Body() ([]byte, error) {
	res, err := r.send("body", nil)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(res.Get("binary").String())
}

// ContinueOverrides continue 时允许覆盖的请求字段，零值字段保持原样
type ContinueOverrides struct {
	URL      string
	Method   string
	Headers  Headers
	PostData []byte
}

// FulfillOptions fulfill 合成响应的参数
type FulfillOptions struct {
	Status      int // 0 视为 200
	Headers     Headers
	ContentType string
	Body        string
	BodyBytes   []byte
}

// Route 单次请求的一次性拦截句柄。
// 决议状态机：Pending -> Continued / Aborted / Fulfilled，且仅允许迁移一次，
// 二次决议返回 ErrRouteAlreadyHandled 并且不会向驱动重复发送。
type Route struct {
	channelOwner

	mu      sync.Mutex
	handled bool
}

// Request 被拦截的请求
func (rt *Route) Request() *Request {
	guid := protocol.RefGuid(rt.initializer.Get("request"))
	if guid == "" {
		return nil
	}
	obj, err := rt.conn.lookup(guid)
	if err != nil {
		return nil
	}
	req, _ := obj.(*Request)
	return req
}

// claim 占用唯一一次决议机会
func (rt *Route) claim() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.handled {
		return ErrRouteAlreadyHandled
	}
	rt.handled = true
	return nil
}

// IsHandled 是否已决议
func (rt *Route) IsHandled() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.handled
}

// Continue 放行请求，可选覆盖 URL、方法、头部与请求体；
// 未覆盖的字段由驱动保持原值
func (rt *Route) Continue(overrides *ContinueOverrides) error {
	if err := rt.claim(); err != nil {
		return err
	}
	params := map[string]any{}
	if overrides != nil {
		if overrides.URL != "" {
			params["url"] = overrides.URL
		}
		if overrides.Method != "" {
			params["method"] = overrides.Method
		}
		if overrides.Headers != nil {
			params["headers"] = overrides.Headers
		}
		if overrides.PostData != nil {
			params["postData"] = base64.StdEncoding.EncodeToString(overrides.PostData)
		}
	}
	if _, err := rt.send("continue", params); err != nil {
		return err
	}
	rt.emitResolved("continued")
	return nil
}

// Abort 中止请求，errorCode 为空时使用默认错误码
func (rt *Route) Abort(errorCode string) error {
	if err := rt.claim(); err != nil {
		return err
	}
	if errorCode == "" {
		errorCode = DefaultAbortCode
	}
	if _, err := rt.send("abort", map[string]any{"errorCode": errorCode}); err != nil {
		return err
	}
	rt.emitResolved("aborted")
	return nil
}

// Fulfill 以合成响应应答请求，不再访问网络
func (rt *Route) Fulfill(opts FulfillOptions) error {
	status := opts.Status
	if status == 0 {
		status = 200
	}
	if status < 100 || status > 599 {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}
	if err := rt.claim(); err != nil {
		return err
	}

	headers := make(Headers, len(opts.Headers))
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}
	// contentType 优先于 headers 中的 Content-Type
	if opts.ContentType != "" {
		headers.Set("content-type", opts.ContentType)
	}

	var body string
	isBase64 := false
	length := 0
	if opts.BodyBytes != nil {
		body = base64.StdEncoding.EncodeToString(opts.BodyBytes)
		isBase64 = true
		length = len(opts.BodyBytes)
	} else {
		body = opts.Body
		length = len(opts.Body)
	}
	if headers.Get("content-length") == "" && length > 0 {
		headers.Set("content-length", strconv.Itoa(length))
	}

	params := map[string]any{
		"status":   status,
		"headers":  headers,
		"body":     body,
		"isBase64": isBase64,
	}
	if _, err := rt.send("fulfill", params); err != nil {
		return err
	}
	rt.emitResolved("fulfilled")
	return nil
}

// emitResolved 决议后发出观测事件
func (rt *Route) emitResolved(kind string) {
	ev := NetworkEvent{Type: kind}
	if req := rt.Request(); req != nil {
		ev.URL = req.URL()
		ev.Method = req.Method()
		ev.ResourceType = req.ResourceType()
	}
	rt.conn.emitNet(ev)
}
