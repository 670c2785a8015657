package client

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"

	def "github.com/lovelydayss/zredis/interface"
	"github.com/lovelydayss/zredis/parser"
)

// Options 客户端配置
type Options struct {
	DialTimeout time.Duration // 单次连接超时
	MaxRetries  uint64        // 连接失败的最大重试次数
	Backoff     time.Duration // 重试初始间隔
}

// DefaultOptions 默认配置
func DefaultOptions() Options {
	return Options{
		DialTimeout: time.Second,
		MaxRetries:  3,
		Backoff:     100 * time.Millisecond,
	}
}

// Client 单连接客户端，请求按顺序收发
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	parser def.Parser
}

// Dial 连接服务端，失败时按斐波那契退避重试
func Dial(ctx context.Context, address string, opts Options) (*Client, error) {
	backoff := retry.WithMaxRetries(opts.MaxRetries, retry.NewFibonacci(opts.Backoff))
	dialer := net.Dialer{Timeout: opts.DialTimeout}

	var conn net.Conn
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", address)
	}

	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		parser: parser.NewParser(),
	}, nil
}

// Do 发送一条指令并等待响应
// 服务端返回的错误以 ErrReply 形式返回，error 只表示连接层面的失败
func (c *Client) Do(ctx context.Context, args ...string) (def.Reply, error) {
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return nil, errors.Wrap(err, "set deadline")
		}
		defer func() { _ = c.conn.SetDeadline(time.Time{}) }()
	}

	if _, err := c.conn.Write(encodeCommand(args)); err != nil {
		return nil, errors.Wrap(err, "write request")
	}

	reply, err := c.parser.ReadReply(c.reader)
	if err != nil {
		return nil, errors.Wrap(err, "read reply")
	}
	return reply, nil
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.conn.Close()
}

// encodeCommand 编码为 multi bulk 请求
func encodeCommand(args []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("*" + strconv.Itoa(len(args)) + def.CRLF)
	for _, arg := range args {
		buf.WriteString("$" + strconv.Itoa(len(arg)) + def.CRLF)
		buf.WriteString(arg)
		buf.WriteString(def.CRLF)
	}
	return buf.Bytes()
}
