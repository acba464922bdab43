package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config 服务配置，来源依次为 .env 文件、环境变量、默认值；main 中的命令行参数可再覆盖
type Config struct {
	TCPAddr string // 文本协议监听地址
	WSAddr  string // WebSocket 与管理接口监听地址，为空则不启动
	Width   int    // 迷宫宽度
	Height  int    // 迷宫高度
	Seed    int64  // 迷宫随机种子，0 表示按时间取
	LogFile string // 日志文件路径，为空则只输出到控制台
}

// LoadConfig 读取配置。files 为空时读取当前目录的 .env，文件不存在不算错误
func LoadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}

	width, err := getEnvAsInt("MAZE_WIDTH", 5)
	if err != nil {
		return Config{}, err
	}
	height, err := getEnvAsInt("MAZE_HEIGHT", 5)
	if err != nil {
		return Config{}, err
	}
	seed, err := getEnvAsInt("MAZE_SEED", 0)
	if err != nil {
		return Config{}, err
	}

	return Config{
		TCPAddr: getEnvWithDefault("MAZE_TCP_ADDR", ":3000"),
		WSAddr:  getEnvWithDefault("MAZE_WS_ADDR", ":8080"),
		Width:   width,
		Height:  height,
		Seed:    int64(seed),
		LogFile: getEnvWithDefault("MAZE_LOG_FILE", "maze.log"),
	}, nil
}

// getEnvWithDefault 环境变量未设置时返回默认值（设置为空字符串视为有效值）
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer: %w", key, err)
	}
	return value, nil
}
