package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath 默认配置文件路径
const DefaultPath = "./config.yaml"

// GlobalConfig 全局配置
type GlobalConfig struct {
	Server ServerConfig `yaml:"server"` // 服务器配置
	Log    LogConfig    `yaml:"log"`    // 日志配置
	Expire ExpireConfig `yaml:"expire"` // 过期回收配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Address  string `yaml:"address"`   // 绑定地址
	PoolSize int    `yaml:"pool_size"` // 协程池大小
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`       // debug/info/warn/error
	FileName   string `yaml:"filename"`    // 为空时输出到 stderr
	MaxSize    int    `yaml:"max_size"`    // 单个文件大小上限，MB
	MaxBackups int    `yaml:"max_backups"` // 保留的历史文件数
	MaxAge     int    `yaml:"max_age"`     // 历史文件保留天数
	Compress   bool   `yaml:"compress"`    // 是否压缩历史文件
}

// ExpireConfig 过期回收配置
type ExpireConfig struct {
	GCIntervalMs int `yaml:"gc_interval_ms"` // 定时回收间隔
	GCBatch      int `yaml:"gc_batch"`       // 每次回收的最大 key 数
}

// Config 全局配置对象
var Config = Default()

// Default 默认配置
func Default() *GlobalConfig {
	return &GlobalConfig{
		Server: ServerConfig{
			Address:  "0.0.0.0:1234",
			PoolSize: 5000,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Expire: ExpireConfig{
			GCIntervalMs: 1000,
			GCBatch:      2000,
		},
	}
}

// Load 读取配置文件，未配置的字段保留默认值
func Load(path string) (*GlobalConfig, error) {
	conf := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open config %s", path)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(conf); err != nil {
		return nil, errors.Wrapf(err, "decode config %s", path)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// Init 加载配置到全局对象，文件不存在时使用默认配置
func Init(path string) error {
	conf, err := Load(path)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			Config = Default()
			return nil
		}
		return err
	}
	Config = conf
	return nil
}

func (g *GlobalConfig) validate() error {
	if g.Server.Address == "" {
		return errors.New("server.address is empty")
	}
	if g.Server.PoolSize <= 0 {
		return errors.Errorf("invalid server.pool_size %d", g.Server.PoolSize)
	}
	if g.Expire.GCIntervalMs <= 0 || g.Expire.GCBatch <= 0 {
		return errors.Errorf("invalid expire config %+v", g.Expire)
	}
	return nil
}
