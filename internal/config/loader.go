package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigLoader 配置加载器
type ConfigLoader struct {
	configPath string
	envPrefix  string
	viper      *viper.Viper
}

// NewConfigLoader 创建配置加载器
func NewConfigLoader(configPath, envPrefix string) *ConfigLoader {
	if envPrefix == "" {
		envPrefix = "ZPROBE"
	}

	return &ConfigLoader{
		configPath: configPath,
		envPrefix:  envPrefix,
		viper:      viper.New(),
	}
}

// LoadConfig 加载配置
func (cl *ConfigLoader) LoadConfig() (*Config, error) {
	// 设置配置文件类型
	cl.viper.SetConfigType("yaml")

	// 设置环境变量前缀
	cl.viper.SetEnvPrefix(cl.envPrefix)
	cl.viper.AutomaticEnv()
	cl.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 绑定环境变量
	cl.bindEnvVars()

	// 设置默认值
	cl.setDefaults()

	// 加载配置文件（找不到就用默认值 + flag + 环境变量）
	if err := cl.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// 解析配置
	var cfg Config
	if err := cl.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 用结构体自身的默认值补全 viper 未覆盖的字段（如嵌套 Log 指针）
	setDefaults(&cfg)

	// 验证配置
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	globalConfig = &cfg

	return &cfg, nil
}

// loadConfigFile 加载配置文件。找不到配置文件不是错误：一次扫描完全可以
// 只靠命令行标志和默认值驱动。
func (cl *ConfigLoader) loadConfigFile() error {
	if cl.configPath == "" {
		if envPath := os.Getenv(cl.envPrefix + "_CONFIG_PATH"); envPath != "" {
			cl.configPath = envPath
		}
	}

	if cl.configPath != "" {
		cl.viper.SetConfigFile(cl.configPath)
		return cl.viper.ReadInConfig()
	}

	cl.viper.AddConfigPath(".")
	cl.viper.AddConfigPath("./configs")
	cl.viper.SetConfigName("config")

	if err := cl.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// bindEnvVars 绑定环境变量
func (cl *ConfigLoader) bindEnvVars() {
	cl.viper.BindEnv("rate", "ZPROBE_RATE")
	cl.viper.BindEnv("bandwidth", "ZPROBE_BANDWIDTH")
	cl.viper.BindEnv("senders", "ZPROBE_SENDERS")
	cl.viper.BindEnv("probe_module", "ZPROBE_PROBE_MODULE")
	cl.viper.BindEnv("probe_args", "ZPROBE_PROBE_ARGS")
	cl.viper.BindEnv("interface", "ZPROBE_INTERFACE")
	cl.viper.BindEnv("log.level", "ZPROBE_LOG_LEVEL")
	cl.viper.BindEnv("log.file_path", "ZPROBE_LOG_FILE_PATH")
}

// setDefaults 设置 viper 层默认值，独立于结构体零值的 setDefaults。
func (cl *ConfigLoader) setDefaults() {
	cl.viper.SetDefault("senders", 1)
	cl.viper.SetDefault("packet_streams", 1)
	cl.viper.SetDefault("total_shards", 1)
	cl.viper.SetDefault("shard_num", 0)
	cl.viper.SetDefault("batch", 1)
	cl.viper.SetDefault("source_port_first", 32768)
	cl.viper.SetDefault("source_port_last", 61000)
	cl.viper.SetDefault("probe_ttl", 255)
	cl.viper.SetDefault("cooldown_secs", 8)

	cl.viper.SetDefault("log.level", "info")
	cl.viper.SetDefault("log.format", "text")
	cl.viper.SetDefault("log.output", "stdout")
	cl.viper.SetDefault("log.max_size", 100)
	cl.viper.SetDefault("log.max_backups", 3)
	cl.viper.SetDefault("log.max_age", 28)
	cl.viper.SetDefault("log.compress", true)
}

// GetConfigPath 获取配置文件路径
func (cl *ConfigLoader) GetConfigPath() string {
	return cl.viper.ConfigFileUsed()
}

// LoadConfigFromFile 从指定文件加载配置
func LoadConfigFromFile(configFile string) (*Config, error) {
	configPath := filepath.Dir(configFile)
	loader := NewConfigLoader(configPath, "ZPROBE")
	loader.configPath = configFile
	return loader.LoadConfig()
}
