package datastore

import (
	mstring "github.com/lovelydayss/zredis/datastruct/string"
	mzset "github.com/lovelydayss/zredis/datastruct/zset"
	def "github.com/lovelydayss/zredis/interface"
)

// K-V 存储对应操作

func (k *KVStore) getAsString(key string) (mstring.String, error) {
	v, ok := k.data[key]
	if !ok {
		return nil, nil
	}

	str, ok := v.(mstring.String)
	if !ok {
		return nil, def.NewWrongTypeErrReply()
	}

	return str, nil
}

// put 写入字符串，insertStrategy 为 true 时不覆盖已有 key
func (k *KVStore) put(key string, value []byte, insertStrategy bool) bool {
	if _, ok := k.data[key]; ok && insertStrategy {
		return false
	}

	k.data[key] = mstring.NewString(value)
	return true
}

func (k *KVStore) getAsSortedSet(key string) (*mzset.ZSet, error) {
	v, ok := k.data[key]
	if !ok {
		return nil, nil
	}

	zset, ok := v.(*mzset.ZSet)
	if !ok {
		return nil, def.NewWrongTypeErrReply()
	}

	return zset, nil
}

func (k *KVStore) getOrInitSortedSet(key string) (*mzset.ZSet, error) {
	zset, err := k.getAsSortedSet(key)
	if err != nil {
		return nil, err
	}

	if zset == nil {
		zset = mzset.New()
		k.data[key] = zset
	}
	return zset, nil
}

// removeKey 删除 key 及其过期时间
func (k *KVStore) removeKey(key string) bool {
	if _, ok := k.data[key]; !ok {
		return false
	}
	delete(k.data, key)
	k.persist(key)
	return true
}
