package protocol

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// 保留方法名：对象生命周期帧
const (
	MethodCreate  = "__create__"
	MethodDispose = "__dispose__"
)

// ErrMalformed 帧格式非法，属于连接级致命错误
var ErrMalformed = errors.New("malformed frame")

// Message 一帧入站协议消息：方法结果帧或事件帧
type Message struct {
	ID     int    // 相关 id，仅结果帧使用
	GUID   string // 目标对象 guid，仅事件帧使用
	Method string // 事件名，仅事件帧使用
	Params gjson.Result
	Result gjson.Result
	Error  *CallError
}

// CallError 驱动侧返回的调用失败
type CallError struct {
	Name    string
	Message string
	Stack   string
}

func (e *CallError) Error() string {
	if e.Name != "" {
		return e.Name + ": " + e.Message
	}
	return e.Message
}

// IsResult 判断是否为方法结果帧
func (m *Message) IsResult() bool { return m.ID != 0 }

// Decode 解析一帧入站消息
func Decode(data []byte) (*Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: 非法 JSON", ErrMalformed)
	}
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return nil, fmt.Errorf("%w: 帧必须是 JSON 对象", ErrMalformed)
	}

	if id := r.Get("id"); id.Exists() {
		m := &Message{ID: int(id.Int())}
		if m.ID <= 0 {
			return nil, fmt.Errorf("%w: 相关 id 非法: %s", ErrMalformed, id.Raw)
		}
		if e := r.Get("error.error"); e.Exists() {
			m.Error = &CallError{
				Name:    e.Get("name").String(),
				Message: e.Get("message").String(),
				Stack:   e.Get("stack").String(),
			}
		} else {
			m.Result = r.Get("result")
		}
		return m, nil
	}

	m := &Message{
		GUID:   r.Get("guid").String(),
		Method: r.Get("method").String(),
		Params: r.Get("params"),
	}
	if m.Method == "" {
		return nil, fmt.Errorf("%w: 事件帧缺少 method", ErrMalformed)
	}
	return m, nil
}

// EncodeCall 构造一帧出站方法调用
func EncodeCall(id int, guid, method string, params map[string]any) ([]byte, error) {
	b := []byte(`{}`)
	b, err := sjson.SetBytes(b, "id", id)
	if err != nil {
		return nil, err
	}
	if b, err = sjson.SetBytes(b, "guid", guid); err != nil {
		return nil, err
	}
	if b, err = sjson.SetBytes(b, "method", method); err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]any{}
	}
	if b, err = sjson.SetBytes(b, "params", params); err != nil {
		return nil, err
	}
	return b, nil
}

// GuidRef 将远端对象引用序列化为 {"guid": ...} 包装
func GuidRef(guid string) map[string]any {
	return map[string]any{"guid": guid}
}

// RefGuid 从参数中的对象引用取出 guid，非引用时返回空串
func RefGuid(v gjson.Result) string {
	return v.Get("guid").String()
}
