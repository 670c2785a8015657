package parser

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"

	def "github.com/lovelydayss/zredis/interface"
	"github.com/lovelydayss/zredis/lib/pool"
	"github.com/lovelydayss/zredis/log"
)

const (
	maxBulkLen      = 512 << 20
	maxMultiBulkLen = 1024 * 1024
	maxLineLen      = 64 << 10
	// 预分配上限，长度字段来自对端，不可直接用于分配
	maxPrealloc = 1024
)

// ErrProtocol 协议格式错误
var ErrProtocol = errors.New("Protocol error")

type lineParser func(header []byte, reader *bufio.Reader) *def.Droplet

// Parser 协议命令解析器具体实现
type Parser struct {
	lineParsers map[byte]lineParser
}

// NewParser 初始化
func NewParser() def.Parser {
	p := &Parser{}
	p.lineParsers = map[byte]lineParser{
		'+': p.parseSimpleString,
		'-': p.parseError,
		':': p.parseInt,
		'$': p.parseBulk,
		'*': p.parseMultiBulk,
	}

	return p
}

// ParseStream 连接转换成 stream channel 形式，异步执行
// ctx 结束后解析协程退出
func (p *Parser) ParseStream(ctx context.Context, reader io.Reader) <-chan *def.Droplet {

	ch := make(chan *def.Droplet)

	pool.Submit(
		func() {
			p.parse(ctx, reader, ch)
		})

	return ch
}

// 实际解析，每个解析器单独一个 go routine 处理
// 协程 chan 同步
func (p *Parser) parse(ctx context.Context, rawReader io.Reader, ch chan<- *def.Droplet) {
	defer close(ch)

	send := func(droplet *def.Droplet) bool {
		select {
		case <-ctx.Done():
			return false
		case ch <- droplet:
			return true
		}
	}

	reader := bufio.NewReaderSize(rawReader, maxLineLen)
	for {

		// 逐行读数据
		firstLine, err := readLine(reader)
		if errors.Is(err, ErrProtocol) {
			send(protocolErrDroplet(err))
			return
		}
		if err != nil {
			send(&def.Droplet{
				Reply: def.NewErrReply("ERR " + err.Error()),
				Err:   err,
			})
			return
		}

		firstLine = bytes.TrimRight(firstLine, "\r\n")
		if len(firstLine) == 0 {
			continue
		}

		// 非协议前缀按 inline 指令处理，如 "zadd key 1 n1"
		lineParseFunc, ok := p.lineParsers[firstLine[0]]
		if !ok {
			if !send(p.parseInline(firstLine)) {
				return
			}
			continue
		}

		// 发送解析结果
		droplet := lineParseFunc(firstLine, reader)
		if !send(droplet) || droplet.Terminated() {
			return
		}
	}
}

// readLine 读取一行，长度超过 reader 缓冲区时返回协议错误
func readLine(reader *bufio.Reader) ([]byte, error) {
	line, err := reader.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return nil, errors.Wrapf(ErrProtocol, "line exceeds %d bytes", reader.Size())
	}
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), line...), nil
}

// 解析 inline 指令，按空白切分参数，支持双引号包裹的参数
func (p *Parser) parseInline(line []byte) *def.Droplet {
	args, err := SplitArgs(line)
	if err != nil {
		return protocolErrDroplet(err)
	}
	return &def.Droplet{
		Reply: def.NewMultiBulkReply(args),
	}
}

// SplitArgs 按空白切分 inline 指令，双引号内支持反斜杠转义
func SplitArgs(line []byte) ([][]byte, error) {
	var (
		args    [][]byte
		cur     = []byte{}
		inArg   bool
		inQuote bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuote && c == '\\' && i+1 < len(line):
			i++
			cur = append(cur, line[i])
		case c == '"':
			inQuote = !inQuote
			inArg = true
		case !inQuote && (c == ' ' || c == '\t'):
			if inArg {
				args = append(args, cur)
				cur, inArg = []byte{}, false
			}
		default:
			cur = append(cur, c)
			inArg = true
		}
	}
	if inQuote {
		return nil, errors.Wrap(ErrProtocol, "unbalanced quotes in request")
	}
	if inArg {
		args = append(args, cur)
	}
	return args, nil
}

// 解析简单 string 类型
func (p *Parser) parseSimpleString(header []byte, reader *bufio.Reader) *def.Droplet {
	content := header[1:]
	return &def.Droplet{
		Reply: def.NewSimpleStringReply(string(content)),
	}
}

// 解析简单 int 类型
func (p *Parser) parseInt(header []byte, reader *bufio.Reader) *def.Droplet {

	i, err := strconv.ParseInt(string(header[1:]), 10, 64)
	if err != nil {
		return protocolErrDroplet(err)
	}

	return &def.Droplet{
		Reply: def.NewIntReply(i),
	}
}

// 解析错误类型
func (p *Parser) parseError(header []byte, reader *bufio.Reader) *def.Droplet {
	return &def.Droplet{
		Reply: def.NewErrReply(string(header[1:])),
	}
}

// 解析定长 string 类型
func (p *Parser) parseBulk(header []byte, reader *bufio.Reader) *def.Droplet {
	// 解析定长 string
	body, err := p.parseBulkBody(header, reader)
	if err != nil {
		return protocolErrDroplet(err)
	}
	if body == nil {
		return &def.Droplet{
			Reply: def.NewNillReply(),
		}
	}
	return &def.Droplet{
		Reply: def.NewBulkReply(body),
	}
}

// 解析定长 string，长度为 -1 时返回 nil
func (p *Parser) parseBulkBody(header []byte, reader *bufio.Reader) ([]byte, error) {
	// 获取 string 长度
	strLen, err := strconv.ParseInt(string(header[1:]), 10, 64)
	if err != nil {
		return nil, errors.Wrapf(ErrProtocol, "invalid bulk length %q", header[1:])
	}
	if strLen == -1 {
		return nil, nil
	}
	if strLen < 0 || strLen > maxBulkLen {
		return nil, errors.Wrapf(ErrProtocol, "invalid bulk length %d", strLen)
	}

	// 长度 + 2，把 CRLF 也考虑在内
	body := make([]byte, strLen+2)
	// 从 reader 中读取对应长度
	if _, err = io.ReadFull(reader, body); err != nil {
		return nil, err
	}
	return body[:len(body)-2], nil
}

// 解析请求数组，元素必须为定长 string
func (p *Parser) parseMultiBulk(header []byte, reader *bufio.Reader) *def.Droplet {

	// 获取数组长度
	length, err := strconv.ParseInt(string(header[1:]), 10, 64)
	if err != nil {
		return protocolErrDroplet(errors.Wrapf(ErrProtocol, "invalid multibulk length %q", header[1:]))
	}

	if length <= 0 {
		return &def.Droplet{
			Reply: def.NewEmptyMultiBulkReply(),
		}
	}

	if length > maxMultiBulkLen {
		return protocolErrDroplet(errors.Wrapf(ErrProtocol, "invalid multibulk length %d", length))
	}

	lines := make([][]byte, 0, min(length, maxPrealloc))
	for i := int64(0); i < length; i++ {
		// 获取每个 bulk 首行
		firstLine, err := readLine(reader)
		if err != nil {
			return protocolErrDroplet(err)
		}

		// bulk 首行格式校验
		firstLine = bytes.TrimRight(firstLine, "\r\n")
		if len(firstLine) < 2 || firstLine[0] != '$' {
			return protocolErrDroplet(errors.Wrapf(ErrProtocol, "expected '$', got %q", firstLine))
		}

		// bulk 解析
		bulkBody, err := p.parseBulkBody(firstLine, reader)
		if err != nil {
			return protocolErrDroplet(err)
		}

		lines = append(lines, bulkBody)
	}

	return &def.Droplet{
		Reply: def.NewMultiBulkReply(lines),
	}
}

// ReadReply 读取一个完整响应，供客户端使用
func (p *Parser) ReadReply(reader *bufio.Reader) (def.Reply, error) {
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, errors.Wrap(ErrProtocol, "empty reply line")
	}

	switch line[0] {
	case '+':
		return def.NewSimpleStringReply(string(line[1:])), nil
	case '-':
		return def.NewErrReply(string(line[1:])), nil
	case ':':
		i, err := strconv.ParseInt(string(line[1:]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrProtocol, "invalid integer %q", line[1:])
		}
		return def.NewIntReply(i), nil
	case ',':
		v, err := parseDouble(string(line[1:]))
		if err != nil {
			return nil, err
		}
		return def.NewDoubleReply(v), nil
	case '_':
		return def.NewNillReply(), nil
	case '$':
		body, err := p.parseBulkBody(line, reader)
		if err != nil {
			return nil, err
		}
		if body == nil {
			return def.NewNillReply(), nil
		}
		return def.NewBulkReply(body), nil
	case '*':
		n, err := strconv.ParseInt(string(line[1:]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrProtocol, "invalid array length %q", line[1:])
		}
		if n < 0 {
			return def.NewNillReply(), nil
		}
		replies := make([]def.Reply, 0, min(n, maxPrealloc))
		for i := int64(0); i < n; i++ {
			reply, err := p.ReadReply(reader)
			if err != nil {
				return nil, err
			}
			replies = append(replies, reply)
		}
		return def.NewArrayReply(replies...), nil
	}

	return nil, errors.Wrapf(ErrProtocol, "unknown reply type %q", line[0])
}

func parseDouble(s string) (float64, error) {
	switch s {
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrProtocol, "invalid double %q", s)
	}
	return v, nil
}

// protocolErrDroplet 解析失败，io 错误会使连接终止
func protocolErrDroplet(err error) *def.Droplet {
	log.Warnf("[parser]parse err: %s", err.Error())
	return &def.Droplet{
		Reply: def.NewErrReply("ERR " + err.Error()),
		Err:   err,
	}
}
