package match

import (
	"regexp"
	"strings"
	"sync"
)

// URLMatcher 路由模式匹配器，支持 glob 模式与 /.../ 正则模式
type URLMatcher struct {
	pattern string
	re      *regexp.Regexp
}

// NewURL 编译 URL 模式；非法模式退化为全等比较
func NewURL(pattern string) *URLMatcher {
	m := &URLMatcher{pattern: pattern}
	var src string
	if len(pattern) > 1 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		src = pattern[1 : len(pattern)-1]
	} else {
		src = "^" + globToRegex(pattern) + "$"
	}
	if re, err := regexCache.get(src); err == nil {
		m.re = re
	}
	return m
}

// Pattern 返回原始模式串
func (m *URLMatcher) Pattern() string { return m.pattern }

// Match 判断 URL 是否命中模式
func (m *URLMatcher) Match(u string) bool {
	if m.re == nil {
		return u == m.pattern
	}
	return m.re.MatchString(u)
}

// globToRegex 将 glob 模式翻译为正则：** 任意段、* 不跨 /、? 单字符
func globToRegex(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString(".")
		case '.', '+', '^', '$', '(', ')', '[', ']', '{', '}', '|', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// cache 正则编译缓存，路由模式会被每个请求反复求值
type cache struct {
	mu sync.RWMutex
	m  map[string]*regexp.Regexp
}

var regexCache = &cache{m: make(map[string]*regexp.Regexp)}

func (c *cache) get(src string) (*regexp.Regexp, error) {
	c.mu.RLock()
	re, ok := c.m[src]
	c.mu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.m[src] = re
	c.mu.Unlock()
	return re, nil
}
