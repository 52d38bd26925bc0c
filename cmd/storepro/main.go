package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/talkincode/storepro/config"
	"github.com/talkincode/storepro/internal/adminapi"
	"github.com/talkincode/storepro/internal/app"
	"github.com/talkincode/storepro/internal/webserver"
)

var (
	h         = pflag.BoolP("help", "h", false, "help usage")
	showVer   = pflag.BoolP("version", "v", false, "show version")
	conffile  = pflag.StringP("config", "c", "", "config yaml file")
	initdb    = pflag.Bool("initdb", false, "drop and recreate all tables, then seed the admin account")
	printConf = pflag.Bool("print", false, "print the effective config and exit")
)

const version = "1.0.0"

func main() {
	pflag.Parse()

	if *showVer {
		fmt.Println("storepro " + version)
		return
	}
	if *h {
		pflag.Usage()
		return
	}

	cfg := config.LoadConfig(*conffile)
	if *printConf {
		cfg.Print()
		return
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	webserver.Init(application)
	adminapi.Init()

	errCh := make(chan error, 1)
	go func() {
		errCh <- webserver.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		zap.S().Infof("received %s, shutting down", s)
		webserver.Stop()
	case err := <-errCh:
		if err != nil {
			zap.S().Errorf("admin server exited: %s", err.Error())
		}
	}
}
