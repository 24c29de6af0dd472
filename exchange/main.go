package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pooldex/swapd/config"
	"github.com/pooldex/swapd/exchange/app"
)

func shutdown(cancel context.CancelFunc, quit chan os.Signal) {
	<-quit
	cancel()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGABRT)
	go shutdown(cancel, quit)

	if len(os.Args) != 2 {
		panic("args is invalid")
	}
	workSpace := os.Args[1]
	if err := os.Chdir(workSpace); err != nil {
		panic(err)
	}

	godotenv.Load()

	infoJson, err := os.ReadFile(config.ConfigFile)
	if err != nil {
		panic(err)
	}
	var cfg config.Config
	err = json.Unmarshal(infoJson, &cfg)
	if err != nil {
		panic(err)
	}
	cfg.WorkSpace = workSpace
	workspace, _ := os.Getwd()
	fmt.Printf("work space: %s\n", workspace)

	if listen := os.Getenv("EXCHANGE_LISTEN"); listen != "" {
		cfg.Listen = listen
	}
	if owner := os.Getenv("EXCHANGE_OWNER"); owner != "" {
		cfg.Owner = owner
	}
	if dbPasswd := os.Getenv("EXCHANGE_DB_PASSWD"); dbPasswd != "" {
		cfg.DBPasswd = dbPasswd
	}

	ex := app.NewExchange(ctx, &cfg)
	ex.Service()
}
