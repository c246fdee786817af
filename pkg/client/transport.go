package client

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// Transport 与驱动进程之间有序可靠的消息流，分帧由实现负责
type Transport interface {
	// Send 发送一帧完整消息
	Send(data []byte) error
	// Recv 阻塞读取下一帧完整消息，连接关闭时返回错误
	Recv() ([]byte, error)
	Close() error
}

// pipeTransport 基于字节流的管道传输，4 字节小端长度前缀分帧。
// 驱动进程的派生与退出由调用方负责。
type pipeTransport struct {
	r       io.Reader
	w       io.Writer
	writeMu sync.Mutex
	closer  io.Closer
}

// NewPipeTransport 在已建立的读写流上创建管道传输
func NewPipeTransport(r io.Reader, w io.Writer) Transport {
	t := &pipeTransport{r: r, w: w}
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
	return t
}

func (t *pipeTransport) Send(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	var head [4]byte
	binary.LittleEndian.PutUint32(head[:], uint32(len(data)))
	if _, err := t.w.Write(head[:]); err != nil {
		return fmt.Errorf("写入帧头失败: %w", err)
	}
	if _, err := t.w.Write(data); err != nil {
		return fmt.Errorf("写入帧体失败: %w", err)
	}
	return nil
}

func (t *pipeTransport) Recv() ([]byte, error) {
	var head [4]byte
	if _, err := io.ReadFull(t.r, head[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(head[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(t.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *pipeTransport) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// wsTransport websocket 传输，连接远端驱动
type wsTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// DialWebSocket 建立到驱动的 websocket 传输
func DialWebSocket(url string) (Transport, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("连接驱动失败: %w", err)
	}
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) Send(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Recv() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
