package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lovelydayss/zredis/config"
	"github.com/lovelydayss/zredis/lib/pool"
	"github.com/lovelydayss/zredis/log"
	"github.com/lovelydayss/zredis/server"
)

func main() {
	path := flag.String("config", config.DefaultPath, "config file path")
	flag.Parse()

	if err := config.Init(*path); err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %+v\n", err)
		os.Exit(1)
	}
	pool.Init(config.Config.Server.PoolSize)

	s, err := server.ConstructServer(config.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "server construct failed: %+v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Default().Sync() }()

	if err := s.Serve(config.Config.Server.Address); err != nil {
		log.Errorf("server run failed: %+v", err)
		_ = log.Default().Sync()
		os.Exit(1)
	}
}
