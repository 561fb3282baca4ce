package main

import (
	"context"
	"fmt"
	"log"

	echoportal "github.com/EduardoBullon/SEM16-PC04/apps/portal/echo"
	"github.com/EduardoBullon/SEM16-PC04/core"
	"github.com/EduardoBullon/SEM16-PC04/core/notify"
	"github.com/EduardoBullon/SEM16-PC04/core/session"
	"github.com/EduardoBullon/SEM16-PC04/services/backend"
	logsvc "github.com/EduardoBullon/SEM16-PC04/services/logger"
	"github.com/EduardoBullon/SEM16-PC04/storage/sessionstore"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// set up logger
	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger(conf.Debug), conf)
	defer logger.Sync()

	// set up session persistence
	persister, err := sessionstore.Open(conf.Session)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening session store: %v", err), err)
	}
	defer func() {
		if err := persister.Close(); err != nil {
			logger.Error("could not close session store", err)
		}
	}()
	sessions := session.NewStore(persister, logger)

	// set up services
	client := backend.New(conf.APIURL, sessions, backend.WithLogger(logger))
	notes := notify.NewCenter()
	defer notes.Close()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoportal.NewServer(
		echoportal.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Sessions:      sessions,
			Backend:       client,
			Notifications: notes,
		},
	)
	unsubscribe := client.OnSessionInvalidated(server.Navigator().SessionInvalidated)
	defer unsubscribe()

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
