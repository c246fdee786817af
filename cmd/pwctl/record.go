package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pwdriver/internal/config"
	"pwdriver/internal/logger"
	"pwdriver/internal/storage"
	"pwdriver/pkg/client"
)

// RecordCmd 创建 record 命令：连接驱动、拦截并记录一次导航的网络流量
func RecordCmd() *cobra.Command {
	var (
		targetURL string
		pattern   string
		action    string
		abortCode string
		body      string
		waitSec   int
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "拦截并记录一次导航的网络流量",
		Long: `连接驱动进程，打开页面并按模式拦截网络请求。

拦截动作:
  continue   放行请求（默认）
  abort      中止请求
  fulfill    以 --body 内容合成响应

示例:
  pwctl record --url https://example.com
  pwctl record --url https://example.com --pattern "**/*.png" --action abort`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(targetURL, pattern, action, abortCode, body, waitSec)
		},
	}

	cmd.Flags().StringVar(&targetURL, "url", "", "导航地址")
	cmd.Flags().StringVar(&pattern, "pattern", "**/*", "拦截的 URL 模式")
	cmd.Flags().StringVar(&action, "action", "continue", "拦截动作: continue / abort / fulfill")
	cmd.Flags().StringVar(&abortCode, "abort-code", "", "abort 错误码，空值使用默认失败码")
	cmd.Flags().StringVar(&body, "body", "", "fulfill 的响应体")
	cmd.Flags().IntVar(&waitSec, "wait", 3, "导航后继续记录的秒数")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func runRecord(targetURL, pattern, action, abortCode, body string, waitSec int) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Writers: cfg.Log.Writer, File: cfg.Log.File})

	t, err := client.DialWebSocket(cfg.Driver.URL)
	if err != nil {
		return err
	}
	pw, conn, err := client.Connect(t, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	rec, err := storage.Open(cfg.Sqlite.Dsn, cfg.Sqlite.Prefix, log)
	if err != nil {
		return err
	}
	go rec.Consume(conn.NetworkEvents())

	bt := pw.Chromium()
	if bt == nil {
		return fmt.Errorf("驱动未提供 chromium 入口")
	}
	browser, err := bt.Launch()
	if err != nil {
		return err
	}
	defer browser.Close()

	ctx, err := browser.NewContext()
	if err != nil {
		return err
	}
	page, err := ctx.NewPage()
	if err != nil {
		return err
	}

	abortTable := client.NewAbortCodeTable(cfg.AbortCodes)
	handler := routeHandler(action, abortCode, body, abortTable.Text(bt.Name(), abortCode), log)
	if err := page.Route(pattern, handler); err != nil {
		return err
	}

	if _, err := page.Goto(targetURL); err != nil {
		// abort 主资源时导航失败属预期，照常输出统计
		log.Warn("导航未完成", "url", targetURL, "error", err)
	}
	time.Sleep(time.Duration(waitSec) * time.Second)

	n, err := rec.Count(rec.Session())
	if err != nil {
		return err
	}
	fmt.Printf("会话 %s 记录 %d 条网络事件\n", rec.Session(), n)
	return nil
}

// routeHandler 按动作构造拦截处理器
func routeHandler(action, abortCode, body, abortText string, log logger.Logger) client.RouteHandler {
	switch action {
	case "abort":
		return func(route *client.Route, req *client.Request) {
			if err := route.Abort(abortCode); err != nil {
				log.Err(err, "abort 失败", "url", req.URL())
				return
			}
			log.Debug("请求已中止", "url", req.URL(), "expect", abortText)
		}
	case "fulfill":
		return func(route *client.Route, req *client.Request) {
			err := route.Fulfill(client.FulfillOptions{Status: 200, ContentType: "text/html", Body: body})
			if err != nil {
				log.Err(err, "fulfill 失败", "url", req.URL())
			}
		}
	default:
		return func(route *client.Route, req *client.Request) {
			if err := route.Continue(nil); err != nil {
				log.Err(err, "continue 失败", "url", req.URL())
			}
		}
	}
}
