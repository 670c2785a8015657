package datastore

import (
	"math"
	"strconv"
	"time"

	def "github.com/lovelydayss/zredis/interface"
	"github.com/lovelydayss/zredis/lib"
)

// GC 执行过期键值对回收
// 利用 zset 的范围查询找出到期的 key，每次至多回收 gcBatch 个
func (k *KVStore) GC() {
	now := float64(lib.UnixMilli(lib.TimeNow()))

	expired := make([]string, 0)
	for key, at := range k.expireTimeWheel.Query(math.Inf(-1), "", 0, int64(k.gcBatch)) {
		if at > now {
			break
		}
		expired = append(expired, key)
	}

	for _, key := range expired {
		k.expireProcess(key)
	}
}

// ExpirePreprocess 预处理过期键
func (k *KVStore) ExpirePreprocess(key string) {
	expiredAt, ok := k.expiredAt[key]
	if !ok {
		return
	}

	if expiredAt.After(lib.TimeNow()) {
		return
	}

	k.expireProcess(key)
}

// expireProcess 执行过期键值对回收
func (k *KVStore) expireProcess(key string) {
	delete(k.data, key)
	k.persist(key)
}

// Expire 设置 key 的过期时间间隔，单位秒
func (k *KVStore) Expire(cmd *def.Command) def.Reply {
	return k.expireAfter(cmd, time.Second)
}

// PExpire 设置 key 的过期时间间隔，单位毫秒
func (k *KVStore) PExpire(cmd *def.Command) def.Reply {
	return k.expireAfter(cmd, time.Millisecond)
}

func (k *KVStore) expireAfter(cmd *def.Command, unit time.Duration) def.Reply {
	args := cmd.Args
	key := string(args[0])
	ttl, err := strconv.ParseInt(string(args[1]), 10, 64)
	if err != nil {
		return def.NewNotIntErrReply()
	}
	if ttl <= 0 {
		return def.NewErrReply("ERR invalid expire time in '" + cmd.Cmd.String() + "' command")
	}

	if _, ok := k.data[key]; !ok {
		return def.NewIntReply(0)
	}

	k.expire(key, lib.TimeNow().Add(time.Duration(ttl)*unit))
	return def.NewIntReply(1)
}

// TTL 剩余存活时间，单位秒
func (k *KVStore) TTL(cmd *def.Command) def.Reply {
	return k.ttl(string(cmd.Args[0]), time.Second)
}

// PTTL 剩余存活时间，单位毫秒
func (k *KVStore) PTTL(cmd *def.Command) def.Reply {
	return k.ttl(string(cmd.Args[0]), time.Millisecond)
}

// ttl key 不存在返回 -2，未设置过期时间返回 -1
func (k *KVStore) ttl(key string, unit time.Duration) def.Reply {
	if _, ok := k.data[key]; !ok {
		return def.NewIntReply(-2)
	}

	expiredAt, ok := k.expiredAt[key]
	if !ok {
		return def.NewIntReply(-1)
	}

	remain := expiredAt.Sub(lib.TimeNow())
	// 按四舍五入换算
	return def.NewIntReply(int64((remain + unit/2) / unit))
}

// expire 实际设置执行
func (k *KVStore) expire(key string, expiredAt time.Time) {
	if _, ok := k.data[key]; !ok {
		return
	}
	k.expiredAt[key] = expiredAt
	k.expireTimeWheel.Add(key, float64(lib.UnixMilli(expiredAt)))
}

// persist 清除过期时间
func (k *KVStore) persist(key string) {
	if _, ok := k.expiredAt[key]; !ok {
		return
	}
	delete(k.expiredAt, key)
	k.expireTimeWheel.Rem(key)
}
