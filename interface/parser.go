package def

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
)

type Droplet struct {
	Reply Reply
	Err   error
}

// Terminated 连接已不可用
func (d *Droplet) Terminated() bool {
	if errors.Is(d.Err, io.EOF) || errors.Is(d.Err, io.ErrUnexpectedEOF) {
		return true
	}
	return d.Err != nil && errors.Is(d.Err, net.ErrClosed)
}

// Parser 协议解析器
type Parser interface {
	// ParseStream 解析请求流
	ParseStream(ctx context.Context, reader io.Reader) <-chan *Droplet
	// ReadReply 读取一个完整响应
	ReadReply(reader *bufio.Reader) (Reply, error)
}
