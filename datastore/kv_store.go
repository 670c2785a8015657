package datastore

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/lovelydayss/zredis/config"
	mzset "github.com/lovelydayss/zredis/datastruct/zset"
	def "github.com/lovelydayss/zredis/interface"
	"github.com/lovelydayss/zredis/lib"
)

// KVStore 键值存储结构
// 只在执行器协程中访问，不加锁
type KVStore struct {

	// 接口 + 类型断言实现不同类型数据存储
	data map[string]interface{}

	// 过期时间，expireTimeWheel 以毫秒时间戳为分数
	expiredAt       map[string]time.Time
	expireTimeWheel *mzset.ZSet
	gcBatch         int
}

// NewKVStore 初始化 KVStore
func NewKVStore(conf *config.GlobalConfig) def.DataStore {
	return newKVStore(conf.Expire.GCBatch)
}

func newKVStore(gcBatch int) *KVStore {
	return &KVStore{
		data:            make(map[string]interface{}),
		expiredAt:       make(map[string]time.Time),
		expireTimeWheel: mzset.New(),
		gcBatch:         gcBatch,
	}
}

// Get String 类型 Get 实现
func (k *KVStore) Get(cmd *def.Command) def.Reply {
	args := cmd.Args
	key := string(args[0])
	v, err := k.getAsString(key)
	if err != nil {
		return errReply(err)
	}
	if v == nil {
		return def.NewNillReply()
	}
	return def.NewBulkReply(v.Bytes())
}

// Set 支持 NX、EX、PX
func (k *KVStore) Set(cmd *def.Command) def.Reply {
	args := cmd.Args
	key := string(args[0])
	value := args[1]

	var (
		insertStrategy bool
		ttlStrategy    bool
		ttl            time.Duration
	)

	for i := 2; i < len(args); i++ {
		flag := strings.ToLower(string(args[i]))
		switch flag {
		case "nx":
			insertStrategy = true
		case "ex", "px":
			// 重复的过期参数
			if ttlStrategy || i == len(args)-1 {
				return def.NewSyntaxErrReply()
			}
			n, err := strconv.ParseInt(string(args[i+1]), 10, 64)
			if err != nil {
				return def.NewNotIntErrReply()
			}
			if n <= 0 {
				return def.NewErrReply("ERR invalid expire time in 'set' command")
			}

			ttlStrategy = true
			if flag == "ex" {
				ttl = time.Duration(n) * time.Second
			} else {
				ttl = time.Duration(n) * time.Millisecond
			}
			i++
		default:
			return def.NewSyntaxErrReply()
		}
	}

	if !k.put(key, value, insertStrategy) {
		return def.NewNillReply()
	}

	// 覆盖写入会清除原有过期时间
	k.persist(key)
	if ttlStrategy {
		k.expire(key, lib.TimeNow().Add(ttl))
	}
	return def.NewOKReply()
}

// Del 删除多个 key，返回删除个数
func (k *KVStore) Del(cmd *def.Command) def.Reply {
	var deleted int64
	for _, arg := range cmd.Args {
		key := string(arg)
		k.ExpirePreprocess(key)
		if k.removeKey(key) {
			deleted++
		}
	}
	return def.NewIntReply(deleted)
}

// Keys 按 glob 模式匹配未过期的 key
func (k *KVStore) Keys(cmd *def.Command) def.Reply {
	pattern, err := glob.Compile(string(cmd.Args[0]))
	if err != nil {
		return def.NewErrReply("ERR invalid pattern: " + err.Error())
	}

	now := lib.TimeNow()
	keys := make([]string, 0)
	for key := range k.data {
		if expiredAt, ok := k.expiredAt[key]; ok && !expiredAt.After(now) {
			continue
		}
		if pattern.Match(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	res := make([][]byte, 0, len(keys))
	for _, key := range keys {
		res = append(res, []byte(key))
	}
	return def.NewMultiBulkReply(res)
}

func errReply(err error) def.Reply {
	if reply, ok := err.(def.ErrorReply); ok {
		return reply
	}
	return def.NewErrReply("ERR " + err.Error())
}
