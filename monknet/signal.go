package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

// interrupted returns a channel that is closed on SIGINT or SIGTERM
func interrupted() <-chan struct{} {
	c := make(chan struct{})

	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
		<-signalChan

		log.Print("Caught SIGINT or SIGTERM, shutting down")
		close(c)
	}()

	return c
}
