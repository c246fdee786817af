package registry

import (
	"errors"
	"fmt"
	"sync"

	"pwdriver/internal/logger"
)

var (
	// ErrDuplicateGuid guid 已被占用，表示客户端与驱动状态失步，属致命错误
	ErrDuplicateGuid = errors.New("duplicate guid")
	// ErrUnknownObject guid 不存在或已被销毁，调用方按丢弃处理
	ErrUnknownObject = errors.New("unknown object")
)

// Object 注册表托管的远端对象代理
type Object interface {
	Guid() string
	TypeName() string
	// Disposed 在对象从注册表移除前回调一次，用于触发 close 观察者
	Disposed()
}

// entry 作用域内的一条登记项：对象或子作用域，按登记顺序排列
type entry struct {
	obj   Object
	child *Scope
}

// Scope 所有权树节点，销毁时按登记顺序深度优先回收子树
type Scope struct {
	reg      *Registry
	parent   *Scope
	entries  []entry
	disposed bool
}

// Registry 连接级远端对象注册表，guid 在连接生命周期内唯一
type Registry struct {
	mu      sync.Mutex
	objects map[string]Object
	root    *Scope
	log     logger.Logger
}

// New 创建注册表及其根作用域
func New(l logger.Logger) *Registry {
	if l == nil {
		l = logger.NewNop()
	}
	r := &Registry{objects: make(map[string]Object), log: l}
	r.root = &Scope{reg: r}
	return r
}

// Root 返回根作用域
func (r *Registry) Root() *Scope { return r.root }

// NewChild 在当前作用域下创建子作用域
func (s *Scope) NewChild() *Scope {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	child := &Scope{reg: s.reg, parent: s}
	s.entries = append(s.entries, entry{child: child})
	return child
}

// Register 在作用域下登记对象，guid 冲突时失败
func (r *Registry) Register(s *Scope, guid string, obj Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.objects[guid]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateGuid, guid)
	}
	r.objects[guid] = obj
	s.entries = append(s.entries, entry{obj: obj})
	return nil
}

// Lookup 按 guid 查找存活对象
func (r *Registry) Lookup(guid string) (Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[guid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, guid)
	}
	return obj, nil
}

// Remove 通知并移除单个对象，已移除时为空操作
func (r *Registry) Remove(obj Object) {
	r.mu.Lock()
	if _, ok := r.objects[obj.Guid()]; !ok {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	// 先通知 close 观察者，再摘除登记，保证观察者回调期间仍可按 guid 查到对象
	obj.Disposed()

	r.mu.Lock()
	delete(r.objects, obj.Guid())
	r.mu.Unlock()
	r.log.Debug("对象已销毁", "guid", obj.Guid(), "type", obj.TypeName())
}

// DisposeScope 深度优先销毁整个作用域子树，可重复调用
func (r *Registry) DisposeScope(s *Scope) {
	r.mu.Lock()
	if s.disposed {
		r.mu.Unlock()
		return
	}
	s.disposed = true
	entries := s.entries
	s.entries = nil
	r.mu.Unlock()

	for _, e := range entries {
		if e.child != nil {
			r.DisposeScope(e.child)
			continue
		}
		r.Remove(e.obj)
	}
}
