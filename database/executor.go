package database

import (
	"bytes"
	"context"
	"time"

	"github.com/lovelydayss/zredis/config"
	def "github.com/lovelydayss/zredis/interface"
	"github.com/lovelydayss/zredis/lib/pool"
	"github.com/lovelydayss/zredis/log"
)

// DBExecutor 是数据库执行器，负责具体的命令处理
// 此处单协程处理，保证数据执行顺序性
type DBExecutor struct {
	ctx    context.Context
	cancel context.CancelFunc
	ch     chan *def.Command
	done   chan struct{}

	cmdHandlers map[def.CmdType]func(*def.Command) def.Reply // 指令名称到处理函数映射
	dataStore   def.DataStore                                // 数据引擎层结构
	logger      log.Logger

	gcTicker *time.Ticker // 垃圾回收定时器
}

// NewDBExecutor 初始化
func NewDBExecutor(conf *config.GlobalConfig, dataStore def.DataStore, logger log.Logger) def.Executor {
	ctx, cancel := context.WithCancel(context.Background())
	e := DBExecutor{
		dataStore: dataStore,
		logger:    logger,
		ch:        make(chan *def.Command),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		gcTicker:  time.NewTicker(time.Duration(conf.Expire.GCIntervalMs) * time.Millisecond),
	}
	e.cmdHandlers = map[def.CmdType]func(*def.Command) def.Reply{
		def.CmdTypeExpire:  e.dataStore.Expire,
		def.CmdTypePExpire: e.dataStore.PExpire,
		def.CmdTypeTTL:     e.dataStore.TTL,
		def.CmdTypePTTL:    e.dataStore.PTTL,

		// generic
		def.CmdTypeDel:  e.dataStore.Del,
		def.CmdTypeKeys: e.dataStore.Keys,

		// string
		def.CmdTypeGet: e.dataStore.Get,
		def.CmdTypeSet: e.dataStore.Set,

		// sorted set
		def.CmdTypeZAdd:   e.dataStore.ZAdd,
		def.CmdTypeZScore: e.dataStore.ZScore,
		def.CmdTypeZRem:   e.dataStore.ZRem,
		def.CmdTypeZRank:  e.dataStore.ZRank,
		def.CmdTypeZCard:  e.dataStore.ZCard,
		def.CmdTypeZQuery: e.dataStore.ZQuery,
	}

	pool.Submit(e.run)
	return &e
}

// Entrance 指令输入入口
func (e *DBExecutor) Entrance() chan<- *def.Command {
	return e.ch
}

// ValidCommand 判断指令是否有效
func (e *DBExecutor) ValidCommand(cmd def.CmdType) bool {
	_, valid := e.cmdHandlers[cmd] // map 只读，不考虑并发问题
	return valid
}

// Close 关闭执行器，等待执行协程退出
func (e *DBExecutor) Close() {
	e.cancel()
	<-e.done
}

// run 执行器主循环
func (e *DBExecutor) run() {
	defer close(e.done)
	defer e.gcTicker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Warnf("[executor]executor closed")
			return

		// 定时批量回收过期的 key
		case <-e.gcTicker.C:
			e.dataStore.GC()

		// 指令处理
		case cmd := <-e.ch:
			cmd.Receiver <- e.exec(cmd)
		}
	}
}

func (e *DBExecutor) exec(cmd *def.Command) def.Reply {
	cmdFunc, ok := e.cmdHandlers[cmd.Cmd]
	if !ok {
		return def.NewErrReply("ERR unknown command '" + cmd.Cmd.String() + "'")
	}
	if len(cmd.Args) == 0 {
		return def.NewArgNumErrReply(cmd.Cmd.String())
	}

	e.logger.Debugf("[executor]exec cmd: %s", bytes.Join(cmd.GetCmd(), []byte(" ")))

	// 懒加载机制实现过期 key 删除
	e.dataStore.ExpirePreprocess(string(cmd.Args[0]))
	return cmdFunc(cmd)
}
