package main

import (
	"fmt"
	"os"

	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
	"github.com/EduardoBullon/SEM16-PC04/services/backend"
	logsvc "github.com/EduardoBullon/SEM16-PC04/services/logger"
	"github.com/EduardoBullon/SEM16-PC04/storage/sessionstore"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf.Debug), conf)
	defer logger.Sync()

	persister, err := sessionstore.Open(conf.Session)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening session store: %v", err), err)
	}
	defer persister.Close()

	sessions := session.NewStore(persister, logger)
	cli := commandLine{
		sessions: sessions,
		client:   backend.New(conf.APIURL, sessions, backend.WithLogger(logger)),
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}
