package client

// DefaultAbortCode abort 未指定错误码时使用的通用失败码
const DefaultAbortCode = "failed"

// 引擎名
const (
	EngineChromium = "chromium"
	EngineFirefox  = "firefox"
	EngineWebkit   = "webkit"
)

// abortErrorText 各引擎对 abort 错误码的落地错误串。
// 这是外部定义的引擎行为，按数据表维护，不进入状态机逻辑。
var abortErrorText = map[string]map[string]string{
	EngineChromium: {
		"aborted":              "net::ERR_ABORTED",
		"accessdenied":         "net::ERR_ACCESS_DENIED",
		"addressunreachable":   "net::ERR_ADDRESS_UNREACHABLE",
		"blockedbyclient":      "net::ERR_BLOCKED_BY_CLIENT",
		"blockedbyresponse":    "net::ERR_BLOCKED_BY_RESPONSE",
		"connectionaborted":    "net::ERR_CONNECTION_ABORTED",
		"connectionclosed":     "net::ERR_CONNECTION_CLOSED",
		"connectionfailed":     "net::ERR_CONNECTION_FAILED",
		"connectionrefused":    "net::ERR_CONNECTION_REFUSED",
		"connectionreset":      "net::ERR_CONNECTION_RESET",
		"internetdisconnected": "net::ERR_INTERNET_DISCONNECTED",
		"namenotresolved":      "net::ERR_NAME_NOT_RESOLVED",
		"timedout":             "net::ERR_TIMED_OUT",
		"failed":               "net::ERR_FAILED",
	},
	EngineFirefox: {
		"aborted":              "NS_BINDING_ABORTED",
		"accessdenied":         "NS_ERROR_PORT_ACCESS_NOT_ALLOWED",
		"connectionrefused":    "NS_ERROR_CONNECTION_REFUSED",
		"connectionreset":      "NS_ERROR_NET_RESET",
		"internetdisconnected": "NS_ERROR_OFFLINE",
		"namenotresolved":      "NS_ERROR_UNKNOWN_HOST",
		"timedout":             "NS_ERROR_NET_TIMEOUT",
		"failed":               "NS_ERROR_FAILURE",
	},
	// webkit 不区分错误码，所有拦截中止统一报告
	EngineWebkit: {},
}

const webkitInterceptedText = "Request intercepted"

// AbortCodeTable abort 错误码到引擎错误串的查询表，可被配置覆盖
type AbortCodeTable struct {
	overrides map[string]map[string]string
}

// NewAbortCodeTable 创建查询表，overrides 来自配置文件，可为 nil
func NewAbortCodeTable(overrides map[string]map[string]string) *AbortCodeTable {
	return &AbortCodeTable{overrides: overrides}
}

// Text 查询某引擎下错误码对应的错误串
func (t *AbortCodeTable) Text(engine, code string) string {
	if code == "" {
		code = DefaultAbortCode
	}
	if t != nil && t.overrides != nil {
		if m, ok := t.overrides[engine]; ok {
			if s, ok := m[code]; ok {
				return s
			}
		}
	}
	if engine == EngineWebkit {
		return webkitInterceptedText
	}
	if m, ok := abortErrorText[engine]; ok {
		if s, ok := m[code]; ok {
			return s
		}
		return m[DefaultAbortCode]
	}
	return code
}
