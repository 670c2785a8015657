package database

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"

	def "github.com/lovelydayss/zredis/interface"
	"github.com/lovelydayss/zredis/log"
)

// Handler 是命令分发的具体实现
type Handler struct {
	sync.Once
	mu     sync.RWMutex
	conns  map[net.Conn]struct{}
	closed atomic.Bool

	db     def.DB
	parser def.Parser
	logger log.Logger
}

// NewHandler 初始化
func NewHandler(db def.DB, parser def.Parser, logger log.Logger) (def.Handler, error) {
	h := Handler{
		conns:  make(map[net.Conn]struct{}),
		db:     db,
		parser: parser,
		logger: logger,
	}

	return &h, nil
}

// Start 指令分发层启动
func (h *Handler) Start() error {
	h.logger.Infof("[handler]handler started")
	return nil
}

// Close 关闭指令分发层
func (h *Handler) Close() {
	h.Once.Do(func() {
		h.logger.Warnf("[handler]handler closing...")
		h.closed.Store(true)
		h.mu.Lock()
		for conn := range h.conns {
			if err := conn.Close(); err != nil {
				h.logger.Errorf("[handler]close conn err, remote addr: %s, err: %s", conn.RemoteAddr().String(), err.Error())
			}
		}
		h.conns = nil
		h.mu.Unlock()
		h.db.Close()
	})
}

// Handle 处理连接，返回时连接已关闭
func (h *Handler) Handle(ctx context.Context, conn net.Conn) {
	h.mu.Lock()
	// 判断 db 是否已经关闭
	if h.closed.Load() {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}

	// 当前 conn 缓存起来
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	h.logger.Debugf("[handler]conn accepted, remote addr: %s", conn.RemoteAddr().String())
	defer h.release(conn)

	// 进一步调用
	h.handle(ctx, conn)
}

func (h *Handler) release(conn net.Conn) {
	h.mu.Lock()
	if h.conns != nil {
		delete(h.conns, conn)
	}
	h.mu.Unlock()

	if err := conn.Close(); err != nil && !h.closed.Load() {
		h.logger.Debugf("[handler]close conn err, remote addr: %s, err: %s", conn.RemoteAddr().String(), err.Error())
	}
}

// handle 处理请求
func (h *Handler) handle(ctx context.Context, conn io.ReadWriter) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 逐个处理 conn 中请求指令-协程并发
	stream := h.parser.ParseStream(ctx, conn)

	for {
		select {
		case <-ctx.Done():
			h.logger.Warnf("[handler]handle ctx err: %s", ctx.Err().Error())
			return

		// chan 解耦，有指令到达对指令处理
		case droplet, ok := <-stream:
			if !ok {
				return
			}
			if err := h.handleDroplet(ctx, conn, droplet); err != nil {
				h.logger.Debugf("[handler]conn terminated, err: %s", err.Error())
				return
			}
		}
	}
}

// handleDroplet 处理每一笔指令，返回 error 时连接不再可用
func (h *Handler) handleDroplet(ctx context.Context, conn io.ReadWriter, droplet *def.Droplet) error {
	if droplet.Terminated() {
		return droplet.Err
	}

	if droplet.Err != nil {
		// 协议错误后流已不可信，写回错误后关闭连接
		_, _ = conn.Write(droplet.Reply.ToBytes())
		h.logger.Errorf("[handler]conn request, err: %s", droplet.Err.Error())
		return droplet.Err
	}

	if droplet.Reply == nil {
		h.logger.Errorf("[handler]conn empty request")
		return nil
	}

	// 请求参数必须为 multiBulkReply 类型
	multiReply, ok := droplet.Reply.(def.MultiReply)
	if !ok {
		h.logger.Errorf("[handler]conn invalid request: %q", droplet.Reply.ToBytes())
		_, err := conn.Write(def.NewErrReply("ERR invalid request").ToBytes())
		return err
	}

	// 调用数据库层进行处理
	reply := h.db.Do(ctx, multiReply.Args())
	if reply == nil {
		// 无返回结果，返回未知错误
		_, err := conn.Write(def.UnknownErrReplyBytes)
		return err
	}

	_, err := conn.Write(reply.ToBytes())
	return err
}
