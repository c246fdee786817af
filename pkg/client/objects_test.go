package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// launchFixture 脚本化 launch / newContext / newPage 调用链
func launchScript(d *fakeDriver) {
	d.onCall = func(d *fakeDriver, id int, guid, method string, params gjson.Result) {
		switch method {
		case "launch":
			d.pushCreate("", "Browser", "browser1", map[string]any{"version": "120.0.6099.28"})
			d.respond(id, map[string]any{"browser": ref("browser1")})
		case "newContext":
			d.pushCreate("browser1", "BrowserContext", "ctx1", nil)
			d.respond(id, map[string]any{"context": ref("ctx1")})
		case "newPage":
			d.pushCreate("ctx1", "Frame", "frame1", map[string]any{"url": "about:blank"})
			d.pushCreate("ctx1", "Page", "page1", map[string]any{"mainFrame": ref("frame1")})
			d.respond(id, map[string]any{"page": ref("page1")})
		default:
			d.respond(id, map[string]any{})
		}
	}
}

func TestLaunchToPageFlow(t *testing.T) {
	conn, d := newTestConnection(t)
	launchScript(d)

	d.pushCreate("", "BrowserType", "bt-chromium", map[string]any{
		"name": "chromium", "executablePath": "/opt/chromium/chrome",
	})
	d.pushCreate("", "Playwright", PlaywrightGuid, map[string]any{"chromium": ref("bt-chromium")})

	obj, err := conn.WaitForObject(PlaywrightGuid)
	require.NoError(t, err)
	pw := obj.(*Playwright)

	bt := pw.Chromium()
	require.NotNil(t, bt)
	assert.Equal(t, "chromium", bt.Name())
	assert.Equal(t, "/opt/chromium/chrome", bt.ExecutablePath())
	assert.Nil(t, pw.Firefox())

	browser, err := bt.Launch()
	require.NoError(t, err)
	assert.Equal(t, "120.0.6099.28", browser.Version())

	ctx, err := browser.NewContext()
	require.NoError(t, err)
	assert.Same(t, browser, ctx.Browser())

	page, err := ctx.NewPage()
	require.NoError(t, err)
	assert.Equal(t, "about:blank", page.URL())
	assert.Same(t, ctx, page.Context())
	assert.Contains(t, ctx.Pages(), page)
}

func TestBrowserCloseEventMarksClosed(t *testing.T) {
	conn, d := newTestConnection(t)
	d.pushCreate("", "Browser", "browser1", nil)
	browser := waitLookup(t, conn, "browser1").(*Browser)
	require.False(t, browser.IsClosed())

	var closes int
	browser.On(EventClose, func(any) { closes++ })
	d.pushEvent("browser1", "close", nil)

	require.Eventually(t, browser.IsClosed, 2*time.Second, time.Millisecond)

	// 随后的 __dispose__ 不再重复发出 close
	d.pushDispose("browser1")
	require.Eventually(t, func() bool {
		_, err := conn.lookup("browser1")
		return err != nil
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, 1, closes)
}

func TestFrameNavigatedEventUpdatesURL(t *testing.T) {
	f := newPageFixture(t)
	require.Equal(t, "about:blank", f.frame.URL())

	f.driver.pushEvent("frame1", "navigated", map[string]any{
		"url": "https://example.com/", "name": "main",
	})
	require.Eventually(t, func() bool {
		return f.frame.URL() == "https://example.com/"
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, "main", f.frame.Name())
	assert.Equal(t, "https://example.com/", f.page.URL())
}

func TestPageCloseRemovesFromContext(t *testing.T) {
	f := newPageFixture(t)
	require.Contains(t, f.ctx.Pages(), f.page)

	f.driver.pushDispose("page1")
	require.Eventually(t, func() bool {
		return len(f.ctx.Pages()) == 0
	}, 2*time.Second, time.Millisecond)
	assert.True(t, f.page.IsClosed())
}
