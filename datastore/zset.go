package datastore

import (
	"math"
	"strconv"

	def "github.com/lovelydayss/zredis/interface"
)

func parseScore(arg []byte) (float64, bool) {
	score, err := strconv.ParseFloat(string(arg), 64)
	if err != nil || math.IsNaN(score) {
		return 0, false
	}
	return score, true
}

// ZAdd zadd key score name [score name ...]，返回新增成员数
func (k *KVStore) ZAdd(cmd *def.Command) def.Reply {
	args := cmd.Args
	if len(args)&1 != 1 {
		return def.NewSyntaxErrReply()
	}

	key := string(args[0])
	var (
		scores  = make([]float64, 0, (len(args)-1)>>1)
		members = make([]string, 0, (len(args)-1)>>1)
	)

	// 先校验全部参数，保证不会出现部分写入
	for i := 1; i < len(args); i += 2 {
		score, ok := parseScore(args[i])
		if !ok {
			return def.NewNotFloatErrReply()
		}

		scores = append(scores, score)
		members = append(members, string(args[i+1]))
	}

	zset, err := k.getOrInitSortedSet(key)
	if err != nil {
		return errReply(err)
	}

	var added int64
	for i := range scores {
		if zset.Add(members[i], scores[i]) {
			added++
		}
	}

	return def.NewIntReply(added)
}

// ZScore 成员不存在时返回 nil
func (k *KVStore) ZScore(cmd *def.Command) def.Reply {
	args := cmd.Args
	zset, err := k.getAsSortedSet(string(args[0]))
	if err != nil {
		return errReply(err)
	}

	if zset == nil {
		return def.NewNillReply()
	}

	score, ok := zset.Score(string(args[1]))
	if !ok {
		return def.NewNillReply()
	}
	return def.NewDoubleReply(score)
}

// ZRem 返回删除成员数，集合为空时删除 key
func (k *KVStore) ZRem(cmd *def.Command) def.Reply {
	args := cmd.Args
	key := string(args[0])
	zset, err := k.getAsSortedSet(key)
	if err != nil {
		return errReply(err)
	}

	if zset == nil {
		return def.NewIntReply(0)
	}

	var remed int64
	for _, arg := range args[1:] {
		if zset.Rem(string(arg)) {
			remed++
		}
	}

	if zset.Len() == 0 {
		k.removeKey(key)
	}
	return def.NewIntReply(remed)
}

// ZRank 成员不存在时返回 nil
func (k *KVStore) ZRank(cmd *def.Command) def.Reply {
	args := cmd.Args
	zset, err := k.getAsSortedSet(string(args[0]))
	if err != nil {
		return errReply(err)
	}

	if zset == nil {
		return def.NewNillReply()
	}

	rank, ok := zset.Rank(string(args[1]))
	if !ok {
		return def.NewNillReply()
	}
	return def.NewIntReply(rank)
}

// ZCard 集合大小
func (k *KVStore) ZCard(cmd *def.Command) def.Reply {
	zset, err := k.getAsSortedSet(string(cmd.Args[0]))
	if err != nil {
		return errReply(err)
	}

	if zset == nil {
		return def.NewIntReply(0)
	}
	return def.NewIntReply(int64(zset.Len()))
}

// ZQuery zquery key score name offset limit
// 从第一个 >= (score, name) 的成员开始，跳过 offset 个后返回至多 limit 个 name、score 对
func (k *KVStore) ZQuery(cmd *def.Command) def.Reply {
	args := cmd.Args
	score, ok := parseScore(args[1])
	if !ok {
		return def.NewNotFloatErrReply()
	}
	name := string(args[2])

	offset, err := strconv.ParseInt(string(args[3]), 10, 64)
	if err != nil {
		return def.NewNotIntErrReply()
	}
	limit, err := strconv.ParseInt(string(args[4]), 10, 64)
	if err != nil {
		return def.NewNotIntErrReply()
	}

	zset, err := k.getAsSortedSet(string(args[0]))
	if err != nil {
		return errReply(err)
	}

	replies := make([]def.Reply, 0)
	if zset == nil {
		return def.NewArrayReply(replies...)
	}

	for member, memberScore := range zset.Query(score, name, offset, limit) {
		replies = append(replies, def.NewBulkReply([]byte(member)), def.NewDoubleReply(memberScore))
	}
	return def.NewArrayReply(replies...)
}
