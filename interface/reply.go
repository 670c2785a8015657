package def

import (
	"bytes"
	"math"
	"strconv"
)

const CRLF = "\r\n"

var (
	UnknownErrReplyBytes = []byte("-ERR unknown\r\n")

	okReplyBytes   = []byte("+OK\r\n")
	nillReplyBytes = []byte("$-1\r\n")
)

// Reply 响应编码接口
type Reply interface {
	ToBytes() []byte
}

// MultiReply 请求参数形式的响应
type MultiReply interface {
	Reply
	Args() [][]byte
}

// ErrorReply 错误响应
type ErrorReply interface {
	Reply
	Error() string
}

// OKReply +OK
type OKReply struct{}

func NewOKReply() *OKReply {
	return &OKReply{}
}

func (o *OKReply) ToBytes() []byte {
	return okReplyBytes
}

// SimpleStringReply 简单字符串
type SimpleStringReply struct {
	Str string
}

func NewSimpleStringReply(str string) *SimpleStringReply {
	return &SimpleStringReply{Str: str}
}

func (s *SimpleStringReply) ToBytes() []byte {
	return []byte("+" + s.Str + CRLF)
}

// ErrReply 通用错误
type ErrReply struct {
	ErrStr string
}

// NewErrReply 错误响应，msg 需自带错误前缀，如 ERR
func NewErrReply(msg string) *ErrReply {
	return &ErrReply{ErrStr: msg}
}

func (e *ErrReply) ToBytes() []byte {
	return []byte("-" + e.ErrStr + CRLF)
}

func (e *ErrReply) Error() string {
	return e.ErrStr
}

// NewSyntaxErrReply 语法错误
func NewSyntaxErrReply() *ErrReply {
	return NewErrReply("ERR syntax error")
}

// NewArgNumErrReply 参数个数错误
func NewArgNumErrReply(cmd string) *ErrReply {
	return NewErrReply("ERR wrong number of arguments for '" + cmd + "' command")
}

// NewNotFloatErrReply 非法浮点数
func NewNotFloatErrReply() *ErrReply {
	return NewErrReply("ERR value is not a valid float")
}

// NewNotIntErrReply 非法整数
func NewNotIntErrReply() *ErrReply {
	return NewErrReply("ERR value is not an integer or out of range")
}

// WrongTypeErrReply 类型不匹配
type WrongTypeErrReply struct{}

var wrongTypeErrBytes = []byte("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n")

func NewWrongTypeErrReply() *WrongTypeErrReply {
	return &WrongTypeErrReply{}
}

func (w *WrongTypeErrReply) ToBytes() []byte {
	return wrongTypeErrBytes
}

func (w *WrongTypeErrReply) Error() string {
	return "WRONGTYPE Operation against a key holding the wrong kind of value"
}

// NillReply 空值
type NillReply struct{}

func NewNillReply() *NillReply {
	return &NillReply{}
}

func (n *NillReply) ToBytes() []byte {
	return nillReplyBytes
}

// IntReply 整数
type IntReply struct {
	Code int64
}

func NewIntReply(code int64) *IntReply {
	return &IntReply{Code: code}
}

func (i *IntReply) ToBytes() []byte {
	return []byte(":" + strconv.FormatInt(i.Code, 10) + CRLF)
}

// DoubleReply 浮点数，采用 resp3 double 编码
type DoubleReply struct {
	Value float64
}

func NewDoubleReply(value float64) *DoubleReply {
	return &DoubleReply{Value: value}
}

func (d *DoubleReply) ToBytes() []byte {
	return []byte("," + FormatFloat(d.Value) + CRLF)
}

// FormatFloat 不带多余尾零的浮点数格式
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// BulkReply 定长字符串
type BulkReply struct {
	Arg []byte
}

func NewBulkReply(arg []byte) *BulkReply {
	return &BulkReply{Arg: arg}
}

func (b *BulkReply) ToBytes() []byte {
	return bulkBytes(b.Arg)
}

func bulkBytes(arg []byte) []byte {
	if arg == nil {
		return nillReplyBytes
	}
	var buf bytes.Buffer
	buf.Grow(len(arg) + 16)
	buf.WriteString("$" + strconv.Itoa(len(arg)) + CRLF)
	buf.Write(arg)
	buf.WriteString(CRLF)
	return buf.Bytes()
}

// MultiBulkReply 定长字符串数组，也用于承载请求参数
type MultiBulkReply struct {
	args [][]byte
}

func NewMultiBulkReply(args [][]byte) *MultiBulkReply {
	return &MultiBulkReply{args: args}
}

func NewEmptyMultiBulkReply() *MultiBulkReply {
	return &MultiBulkReply{}
}

func (m *MultiBulkReply) Args() [][]byte {
	return m.args
}

func (m *MultiBulkReply) ToBytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("*" + strconv.Itoa(len(m.args)) + CRLF)
	for _, arg := range m.args {
		buf.Write(bulkBytes(arg))
	}
	return buf.Bytes()
}

// ArrayReply 任意类型元素数组
type ArrayReply struct {
	Replies []Reply
}

func NewArrayReply(replies ...Reply) *ArrayReply {
	return &ArrayReply{Replies: replies}
}

func (a *ArrayReply) ToBytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("*" + strconv.Itoa(len(a.Replies)) + CRLF)
	for _, reply := range a.Replies {
		buf.Write(reply.ToBytes())
	}
	return buf.Bytes()
}
