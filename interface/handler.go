package def

import (
	"context"
	"net"
)

// Handler 连接处理层，负责把连接上的请求交给 DB 执行并写回响应
type Handler interface {
	Start() error

	// Close 关闭全部连接及下层 DB，之后到达的连接直接关闭
	Close()

	// Handle 阻塞处理一个连接，返回时连接已关闭
	Handle(ctx context.Context, conn net.Conn)
}
