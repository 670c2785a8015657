package database

import (
	"context"
	"sync"

	def "github.com/lovelydayss/zredis/interface"
)

// DBTrigger 触发器，对解析得到 redis 命令进行封装后分发
type DBTrigger struct {
	once     sync.Once
	executor def.Executor // 下层执行器
}

// NewDBTrigger 初始化
func NewDBTrigger(executor def.Executor) def.DB {
	return &DBTrigger{executor: executor}
}

// Do 执行实际指令转换
// 指令名称与参数个数在这里校验，executor 只处理合法指令
func (d *DBTrigger) Do(ctx context.Context, cmdLine [][]byte) def.Reply {
	if len(cmdLine) == 0 {
		return def.NewErrReply("ERR empty command")
	}

	cmdType := def.ParseCmdType(cmdLine[0])
	if cmdType == def.CmdTypeUnknown || !d.executor.ValidCommand(cmdType) {
		return def.NewErrReply("ERR unknown command '" + string(cmdLine[0]) + "'")
	}
	if !cmdType.ValidArity(len(cmdLine)) {
		return def.NewArgNumErrReply(cmdType.String())
	}

	// receiver 带缓冲，调用方提前退出时 executor 不会阻塞
	cmd := def.Command{
		Ctx:      ctx,
		Cmd:      cmdType,
		Args:     cmdLine[1:],
		Receiver: make(chan def.Reply, 1),
	}

	if err := ctx.Err(); err != nil {
		return def.NewErrReply("ERR " + err.Error())
	}

	// 投递给到 executor
	select {
	case <-ctx.Done():
		return def.NewErrReply("ERR " + ctx.Err().Error())
	case d.executor.Entrance() <- &cmd:
	}

	// 监听 chan，直到接收到返回的 reply
	select {
	case <-ctx.Done():
		return def.NewErrReply("ERR " + ctx.Err().Error())
	case reply := <-cmd.Receiver:
		return reply
	}
}

// Close 关闭触发器
func (d *DBTrigger) Close() {
	d.once.Do(d.executor.Close)
}
