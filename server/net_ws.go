package server

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// wsLineConn 把 WebSocket 文本消息当作协议行：一条消息对应一行
type wsLineConn struct {
	ws        *websocket.Conn
	closeOnce sync.Once
	closed    chan struct{}
}

func newWSLineConn(ws *websocket.Conn) *wsLineConn {
	c := &wsLineConn{ws: ws, closed: make(chan struct{})}
	ws.SetReadLimit(maxLineLength)
	_ = ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	go c.pingLoop()
	return c
}

// pingLoop 定时发送 ping 保持连接；WriteControl 可与普通写并发调用
func (c *wsLineConn) pingLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (c *wsLineConn) ReadLine() (string, error) {
	for {
		msgType, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return "", io.EOF
			}
			return "", err
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(payload), "\r\n"), nil
	}
}

func (c *wsLineConn) WriteLine(line string) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *wsLineConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.ws.Close()
	})
	return err
}

func (c *wsLineConn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 协议本身无鉴权，允许所有来源
		return true
	},
}

// handleWS WebSocket 接入，会话在当前请求协程中运行直到断开；
// 计入 sessions，Serve 返回前会等待它移除玩家
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.sessions.Add(1)
	defer s.sessions.Done()

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}
	s.runSession(r.Context(), newWSLineConn(ws))
}
