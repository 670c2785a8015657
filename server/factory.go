package server

import (
	"go.uber.org/dig"

	"github.com/lovelydayss/zredis/config"
	"github.com/lovelydayss/zredis/database"
	"github.com/lovelydayss/zredis/datastore"
	"github.com/lovelydayss/zredis/log"
	"github.com/lovelydayss/zredis/parser"
)

// newContainer 业务实现方法的容器
func newContainer(conf *config.GlobalConfig) (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		/**
		   基础组件
		**/
		// 配置
		func() *config.GlobalConfig { return conf },
		// 日志
		log.NewLogger,

		/**
		   存储引擎
		**/
		// 存储介质
		datastore.NewKVStore,
		// 执行器
		database.NewDBExecutor,
		// 触发器
		database.NewDBTrigger,

		/**
		   逻辑处理层
		**/
		// 协议解析
		parser.NewParser,
		// 指令处理
		database.NewHandler,

		/**
		   服务端
		**/
		NewServer,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}
	return container, nil
}

// ConstructServer 最顶层构造
func ConstructServer(conf *config.GlobalConfig) (*Server, error) {
	container, err := newContainer(conf)
	if err != nil {
		return nil, err
	}

	var s *Server
	if err := container.Invoke(func(_s *Server) {
		s = _s
	}); err != nil {
		return nil, err
	}

	return s, nil
}
