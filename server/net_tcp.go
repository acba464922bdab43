package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	maxLineLength = 4096
	writeTimeout  = 5 * time.Second
)

// tcpLineConn 按换行切分的 TCP 文本连接
type tcpLineConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func newTCPLineConn(conn net.Conn) *tcpLineConn {
	s := bufio.NewScanner(conn)
	s.Buffer(make([]byte, 0, 256), maxLineLength)
	return &tcpLineConn{conn: conn, scanner: s}
}

func (c *tcpLineConn) ReadLine() (string, error) {
	if c.scanner.Scan() {
		return c.scanner.Text(), nil
	}
	if err := c.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (c *tcpLineConn) WriteLine(line string) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := io.WriteString(c.conn, line+"\n")
	return err
}

func (c *tcpLineConn) Close() error {
	return c.conn.Close()
}

func (c *tcpLineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// serveTCP 接受连接，每个连接一个协程运行会话；ctx 取消时关闭监听并返回
func (s *Server) serveTCP(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	Log.Infof("maze listening on %s (tcp)", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accepting tcp connection: %w", err)
		}
		s.startSession(ctx, newTCPLineConn(conn))
	}
}
