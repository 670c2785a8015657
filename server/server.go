package server

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"

	def "github.com/lovelydayss/zredis/interface"
	"github.com/lovelydayss/zredis/lib/pool"
	"github.com/lovelydayss/zredis/log"
)

// ErrServerStarted 同一个 Server 只能启动一次
var ErrServerStarted = errors.New("server already started")

// Server 服务器结构体定义
// Server 层负责接收连接，并交由 handler 处理
type Server struct {
	runOnce  sync.Once
	stopOnce sync.Once

	handler def.Handler // 指令分发层接口
	logger  log.Logger  // 日志组件
	stopc   chan struct{}
	closing atomic.Bool
}

// NewServer 创建新服务器
func NewServer(handler def.Handler, logger log.Logger) *Server {
	return &Server{
		handler: handler,
		logger:  logger,
		stopc:   make(chan struct{}),
	}
}

// Serve 监听地址并阻塞处理连接，直到收到退出信号或调用 Stop
func (s *Server) Serve(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		// 未进入服务循环，需要释放已构造的下层组件
		s.handler.Close()
		return pkgerrors.Wrapf(err, "listen %s", address)
	}
	return s.ServeListener(listener)
}

// ServeListener 使用已有的 listener 处理连接
func (s *Server) ServeListener(listener net.Listener) (err error) {
	err = ErrServerStarted
	s.runOnce.Do(func() {
		if err = s.handler.Start(); err != nil {
			_ = listener.Close()
			return
		}

		// 监听进程信号
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigc)

		closec := make(chan struct{}, 1)
		pool.Submit(func() {
			select {
			case sig := <-sigc:
				s.logger.Warnf("[server]receive signal: %s", sig.String())
			case <-s.stopc:
			}
			closec <- struct{}{}
		})

		// 监听并进行处理
		err = s.listenAndServe(listener, closec)
	})
	return err
}

// Stop 结束服务器循环
func (s *Server) Stop() {
	// 这里使用close(chan{}) 配合 select <-chan{} 实现优雅退出
	s.stopOnce.Do(func() {
		close(s.stopc)
	})
}

// listenAndServe 监听并处理连接
func (s *Server) listenAndServe(listener net.Listener, closec chan struct{}) error {
	errc := make(chan error, 1)

	// 遇到错误或收到退出信号则中止
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan struct{})
	pool.Submit(
		func() {
			defer close(shutdown)
			select {
			case <-closec:
				s.logger.Warnf("[server]server closing...")
			case err := <-errc:
				s.logger.Errorf("[server]server err: %s", err.Error())
			}
			s.closing.Store(true)
			cancel()
			if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Errorf("[server]server close listener err: %s", err.Error())
			}
			s.handler.Close()
		})

	s.logger.Infof("[server]server listening on %s", listener.Addr().String())
	var (
		wg        sync.WaitGroup
		acceptErr error
	)

	// goroutine for per conn
	for {
		conn, err := listener.Accept()
		if err != nil {
			// 超时类错误，忽略
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(5 * time.Millisecond)
				continue
			}

			// 主动关闭时 Accept 返回错误，属于正常退出
			if !s.closing.Load() {
				acceptErr = pkgerrors.Wrap(err, "accept")
				errc <- acceptErr
			}
			break
		}

		// 每个新到来 conn 分配一个协程处理
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			// handler.Handle 执行实际任务处理
			s.handler.Handle(ctx, conn)
		})
	}

	// 信号协程退出
	s.Stop()
	<-shutdown

	// 等待所有连接处理结束
	wg.Wait()
	s.logger.Warnf("[server]server closed, running tasks: %d", pool.Running())
	return acceptErr
}
