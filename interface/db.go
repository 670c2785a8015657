package def

import (
	"context"
)

// DB 数据库层接口
type DB interface {
	Do(ctx context.Context, cmdLine [][]byte) Reply
	Close()
}

// Executor 指令执行器接口
type Executor interface {
	Entrance() chan<- *Command
	ValidCommand(cmd CmdType) bool
	Close()
}

// DataStore 数据存储接口
// 所有方法只在执行器协程中调用，实现无需加锁
type DataStore interface {
	ExpirePreprocess(key string)
	GC() // 定时回收过期 key-value

	Expire(*Command) Reply
	PExpire(*Command) Reply
	TTL(*Command) Reply
	PTTL(*Command) Reply

	// generic
	Del(*Command) Reply
	Keys(*Command) Reply

	// string
	Get(*Command) Reply
	Set(*Command) Reply

	// sorted set
	ZAdd(*Command) Reply
	ZScore(*Command) Reply
	ZRem(*Command) Reply
	ZRank(*Command) Reply
	ZCard(*Command) Reply
	ZQuery(*Command) Reply
}
