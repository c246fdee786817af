package client

import (
	"github.com/tidwall/gjson"

	"pwdriver/internal/registry"
)

// 驱动侧类型标签的封闭集合
const (
	typeBindingCall    = "BindingCall"
	typeBrowser        = "Browser"
	typeBrowserServer  = "BrowserServer"
	typeBrowserType    = "BrowserType"
	typeBrowserContext = "BrowserContext"
	typeConsoleMessage = "ConsoleMessage"
	typeDialog         = "Dialog"
	typeDownload       = "Download"
	typeElementHandle  = "ElementHandle"
	typeFrame          = "Frame"
	typeJSHandle       = "JSHandle"
	typePage           = "Page"
	typePlaywright     = "Playwright"
	typeRequest        = "Request"
	typeResponse       = "Response"
	typeRoute          = "Route"
	typeSelectors      = "Selectors"
	typeWorker         = "Worker"
)

type constructor func() remoteObject

// constructors 类型标签到构造器的分发表，启动时构建一次
var constructors = map[string]constructor{
	typeBindingCall:    func() remoteObject { return &BindingCall{} },
	typeBrowser:        func() remoteObject { return &Browser{} },
	typeBrowserServer:  func() remoteObject { return &BrowserServer{} },
	typeBrowserType:    func() remoteObject { return &BrowserType{} },
	typeBrowserContext: func() remoteObject { return &BrowserContext{} },
	typeConsoleMessage: func() remoteObject { return &ConsoleMessage{} },
	typeDialog:         func() remoteObject { return &Dialog{} },
	typeDownload:       func() remoteObject { return &Download{} },
	typeElementHandle:  func() remoteObject { return &ElementHandle{} },
	typeFrame:          func() remoteObject { return &Frame{} },
	typeJSHandle:       func() remoteObject { return &JSHandle{} },
	typePage:           func() remoteObject { return &Page{} },
	typePlaywright:     func() remoteObject { return &Playwright{} },
	typeRequest:        func() remoteObject { return &Request{} },
	typeResponse:       func() remoteObject { return &Response{} },
	typeRoute:          func() remoteObject { return &Route{} },
	typeSelectors:      func() remoteObject { return &Selectors{} },
	typeWorker:         func() remoteObject { return &Worker{} },
}

// createRemoteObject 按类型标签实例化代理对象。未知标签不视为错误：
// 驱动可能引入客户端尚未建模的类型，返回只支持身份与销毁的占位对象，
// 保证注册表与分发依旧自洽。
func createRemoteObject(conn *Connection, scope *registry.Scope, parent remoteObject, typeName, guid string, initializer gjson.Result) remoteObject {
	var obj remoteObject
	if ctor, ok := constructors[typeName]; ok {
		obj = ctor()
	} else {
		obj = &placeholderObject{}
	}
	obj.base().init(conn, scope, typeName, guid, initializer)
	obj.base().parent = parent
	if h, ok := obj.(interface{ afterInit() }); ok {
		h.afterInit()
	}
	return obj
}

// placeholderObject 未知类型的惰性占位代理
type placeholderObject struct {
	channelOwner
}
