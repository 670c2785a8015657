package database

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovelydayss/zredis/config"
	"github.com/lovelydayss/zredis/datastore"
	def "github.com/lovelydayss/zredis/interface"
	"github.com/lovelydayss/zredis/log"
	"github.com/lovelydayss/zredis/parser"
)

func newTestDB(t *testing.T) def.DB {
	t.Helper()
	conf := config.Default()
	executor := NewDBExecutor(conf, datastore.NewKVStore(conf), log.Default())
	db := NewDBTrigger(executor)
	t.Cleanup(db.Close)
	return db
}

func cmdLine(args ...string) [][]byte {
	line := make([][]byte, 0, len(args))
	for _, arg := range args {
		line = append(line, []byte(arg))
	}
	return line
}

func TestDBTrigger_Do(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown", args: []string{"zrange", "k"}, want: "-ERR unknown command 'zrange'\r\n"},
		{name: "too few", args: []string{"zscore", "k"}, want: "-ERR wrong number of arguments for 'zscore' command\r\n"},
		{name: "too many", args: []string{"zquery", "k", "1", "", "0", "1", "x"}, want: "-ERR wrong number of arguments for 'zquery' command\r\n"},
		{name: "zadd", args: []string{"ZADD", "zset", "1", "n1"}, want: ":1\r\n"},
		{name: "zscore", args: []string{"zscore", "zset", "n1"}, want: ",1\r\n"},
		{name: "zquery", args: []string{"zquery", "zset", "0", "", "0", "1"}, want: "*2\r\n$2\r\nn1\r\n,1\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(db.Do(ctx, cmdLine(tt.args...)).ToBytes()))
		})
	}

	assert.Equal(t, "-ERR empty command\r\n", string(db.Do(ctx, nil).ToBytes()))
}

func TestDBTrigger_CanceledContext(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply := db.Do(ctx, cmdLine("get", "k"))
	_, ok := reply.(def.ErrorReply)
	assert.True(t, ok)
}

func TestDBExecutor_Expire(t *testing.T) {
	conf := config.Default()
	conf.Expire.GCIntervalMs = 10
	executor := NewDBExecutor(conf, datastore.NewKVStore(conf), log.Default())
	db := NewDBTrigger(executor)
	defer db.Close()

	ctx := context.Background()
	require.Equal(t, ":1\r\n", string(db.Do(ctx, cmdLine("zadd", "z", "1", "a")).ToBytes()))
	require.Equal(t, ":1\r\n", string(db.Do(ctx, cmdLine("pexpire", "z", "20")).ToBytes()))

	assert.Eventually(t, func() bool {
		return string(db.Do(ctx, cmdLine("keys", "*")).ToBytes()) == "*0\r\n"
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, ":-2\r\n", string(db.Do(ctx, cmdLine("ttl", "z")).ToBytes()))
}

func TestHandler_Handle(t *testing.T) {
	h, err := NewHandler(newTestDB(t), parser.NewParser(), log.Default())
	require.NoError(t, err)
	require.NoError(t, h.Start())

	serverConn, clientConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Handle(context.Background(), serverConn)
	}()

	p := parser.NewParser()
	reader := bufio.NewReader(clientConn)
	roundTrip := func(req string) string {
		_, err := clientConn.Write([]byte(req))
		require.NoError(t, err)
		reply, err := p.ReadReply(reader)
		require.NoError(t, err)
		return string(reply.ToBytes())
	}

	assert.Equal(t, ":1\r\n", roundTrip("*4\r\n$4\r\nzadd\r\n$4\r\nzset\r\n$1\r\n1\r\n$2\r\nn1\r\n"))
	assert.Equal(t, ":1\r\n", roundTrip("zadd zset 2 n2\r\n"))
	assert.Equal(t, "*4\r\n$2\r\nn1\r\n,1\r\n$2\r\nn2\r\n,2\r\n", roundTrip("zquery zset 1 \"\" 0 10\r\n"))
	assert.Equal(t, "$-1\r\n", roundTrip("zscore zset n3\r\n"))

	require.NoError(t, clientConn.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return after client closed")
	}

	h.Close()
}

func TestHandler_ProtocolErrorClosesConn(t *testing.T) {
	h, err := NewHandler(newTestDB(t), parser.NewParser(), log.Default())
	require.NoError(t, err)

	serverConn, clientConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Handle(context.Background(), serverConn)
	}()

	_, err = clientConn.Write([]byte("*1\r\n+zadd\r\n"))
	require.NoError(t, err)

	reply, err := parser.NewParser().ReadReply(bufio.NewReader(clientConn))
	require.NoError(t, err)
	assert.Contains(t, string(reply.ToBytes()), "Protocol error")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not close conn on protocol error")
	}
	_ = clientConn.Close()
}

func TestHandler_CloseRejectsConn(t *testing.T) {
	h, err := NewHandler(newTestDB(t), parser.NewParser(), log.Default())
	require.NoError(t, err)
	h.Close()

	serverConn, clientConn := net.Pipe()
	h.Handle(context.Background(), serverConn)

	_, err = clientConn.Write([]byte("get k\r\n"))
	assert.Error(t, err)
}
