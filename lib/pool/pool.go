package pool

import (
	"runtime/debug"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/lovelydayss/zredis/log"
)

const defaultSize = 5000

var (
	pool *ants.Pool
	once sync.Once
)

// Init 按指定大小初始化协程池，只有第一次调用生效
func Init(size int) {
	once.Do(func() {
		p, err := ants.NewPool(size, ants.WithPanicHandler(
			func(i interface{}) {
				stackInfo := strings.Replace(string(debug.Stack()), "\n", "", -1)
				log.Errorf("recover info: %v, stack info: %s", i, stackInfo)
			}))
		if err != nil {
			panic(err)
		}
		pool = p
	})
}

// Submit 提交任务
func Submit(task func()) {
	Init(defaultSize)
	if err := pool.Submit(task); err != nil {
		log.Errorf("[pool]submit task err: %s", err.Error())
	}
}

// Running 运行中的任务数
func Running() int {
	Init(defaultSize)
	return pool.Running()
}
