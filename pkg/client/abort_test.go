package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbortCodeTableEngineText(t *testing.T) {
	tbl := NewAbortCodeTable(nil)

	assert.Equal(t, "net::ERR_TIMED_OUT", tbl.Text(EngineChromium, "timedout"))
	assert.Equal(t, "NS_ERROR_NET_TIMEOUT", tbl.Text(EngineFirefox, "timedout"))
	// webkit 不区分错误码
	assert.Equal(t, "Request intercepted", tbl.Text(EngineWebkit, "timedout"))
	assert.Equal(t, "Request intercepted", tbl.Text(EngineWebkit, ""))

	// 空码落到默认失败码
	assert.Equal(t, "net::ERR_FAILED", tbl.Text(EngineChromium, ""))
	assert.Equal(t, "NS_ERROR_FAILURE", tbl.Text(EngineFirefox, ""))

	// 引擎未收录的码退回该引擎的通用失败串
	assert.Equal(t, "NS_ERROR_FAILURE", tbl.Text(EngineFirefox, "blockedbyclient"))
}

func TestAbortCodeTableOverrides(t *testing.T) {
	tbl := NewAbortCodeTable(map[string]map[string]string{
		EngineChromium: {"timedout": "net::ERR_CUSTOM_TIMEOUT"},
	})

	assert.Equal(t, "net::ERR_CUSTOM_TIMEOUT", tbl.Text(EngineChromium, "timedout"))
	// 未覆盖的条目照常查内置表
	assert.Equal(t, "net::ERR_ABORTED", tbl.Text(EngineChromium, "aborted"))

	assert.Equal(t, "custom", NewAbortCodeTable(nil).Text("unknown-engine", "custom"))
}
