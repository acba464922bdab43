package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"reindeermaze/maze"
	"reindeermaze/server"
)

// 入口：加载配置，生成迷宫，启动 TCP 文本协议与 WebSocket/管理接口
func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		panic(err)
	}
	flag.StringVar(&cfg.TCPAddr, "addr", cfg.TCPAddr, "tcp listen address for the line protocol, e.g. :3000")
	flag.StringVar(&cfg.WSAddr, "ws", cfg.WSAddr, "websocket and admin listen address, empty to disable")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "maze width")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "maze height")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "maze seed, 0 for a time based seed")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file path, empty for console only")
	flag.Parse()

	if err := server.InitLogger(cfg.LogFile); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	server.Log.Info("Starting up...")
	world, err := maze.New(maze.Config{Width: cfg.Width, Height: cfg.Height, Seed: cfg.Seed})
	if err != nil {
		server.Log.Fatalf("creating maze: %v", err)
	}
	server.Log.Debugf("maze %dx%d, present at %v\n%s", cfg.Width, cfg.Height, world.Present(),
		world.Grid().Render(map[maze.Position]string{world.Present(): "PP"}))

	// 优雅退出（Ctrl+C）
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(cfg, world)
	if err := srv.Run(ctx); err != nil {
		server.Log.Errorf("server: %v", err)
	}
	world.Stop()
	server.Log.Info("Shutting down...")
}
