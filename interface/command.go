package def

import (
	"context"
	"strings"
)

const (
	CmdTypeUnknown CmdType = ""

	// 设置过期时间
	CmdTypeExpire  CmdType = "expire"
	CmdTypePExpire CmdType = "pexpire"
	CmdTypeTTL     CmdType = "ttl"
	CmdTypePTTL    CmdType = "pttl"

	// generic
	CmdTypeDel  CmdType = "del"
	CmdTypeKeys CmdType = "keys"

	// string
	CmdTypeGet CmdType = "get"
	CmdTypeSet CmdType = "set"

	// sorted set
	CmdTypeZAdd   CmdType = "zadd"
	CmdTypeZScore CmdType = "zscore"
	CmdTypeZRem   CmdType = "zrem"
	CmdTypeZRank  CmdType = "zrank"
	CmdTypeZCard  CmdType = "zcard"
	CmdTypeZQuery CmdType = "zquery"
)

// cmdArity 指令参数个数（含指令名），负数表示至少
var cmdArity = map[CmdType]int{
	CmdTypeExpire:  3,
	CmdTypePExpire: 3,
	CmdTypeTTL:     2,
	CmdTypePTTL:    2,

	CmdTypeDel:  -2,
	CmdTypeKeys: 2,

	CmdTypeGet: 2,
	CmdTypeSet: -3,

	CmdTypeZAdd:   -4,
	CmdTypeZScore: 3,
	CmdTypeZRem:   -3,
	CmdTypeZRank:  3,
	CmdTypeZCard:  2,
	CmdTypeZQuery: 6,
}

// CmdType 指令类型
type CmdType string

// 统一化指令名称为小写
func (c CmdType) String() string {
	return strings.ToLower(string(c))
}

// ParseCmdType 解析指令名称，未知指令返回 CmdTypeUnknown
func ParseCmdType(name []byte) CmdType {
	cmd := CmdType(strings.ToLower(string(name)))
	if _, ok := cmdArity[cmd]; !ok {
		return CmdTypeUnknown
	}
	return cmd
}

// ValidArity 校验参数个数，argc 含指令名
func (c CmdType) ValidArity(argc int) bool {
	arity, ok := cmdArity[c]
	if !ok {
		return false
	}
	if arity >= 0 {
		return argc == arity
	}
	return argc >= -arity
}

// CmdTypes 全部已知指令
func CmdTypes() []CmdType {
	cmds := make([]CmdType, 0, len(cmdArity))
	for cmd := range cmdArity {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// Command 指令封装类型
type Command struct {
	Ctx      context.Context
	Cmd      CmdType
	Args     [][]byte
	Receiver chan Reply
}

// GetCmd 还原完整指令
func (c *Command) GetCmd() [][]byte {
	return append([][]byte{[]byte(c.Cmd)}, c.Args...)
}
