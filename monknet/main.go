/*
Monknet runs a server or a client of the monknet
datagram protocol
*/
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/HimbeerserverDE/monknet"
)

var confPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "monknet",
		Short: "Keep a server and its clients in sync over UDP",
		Long: `Monknet exchanges small text messages over UDP.

One process runs as the server, any number of clients connect to it.
Messages are resent until the other side confirms them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&confPath, "config", "c", monknet.DefaultConfigPath, "configuration file")

	rootCmd.AddCommand(
		serverCmd(),
		clientCmd(),
		banCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration file
// A missing file is not an error, defaults are used instead
func loadConfig() (*monknet.Config, error) {
	conf, err := monknet.LoadConfig(confPath)
	if os.IsNotExist(err) {
		return nil, nil
	}

	return conf, err
}

func openStore(conf *monknet.Config) (*monknet.DB, error) {
	return monknet.OpenStore(conf.String("storage", "storage/monknet.sqlite"))
}

func serveStatus(host string, s *monknet.Session) {
	log.Print("Status API listening on " + host)

	if err := http.ListenAndServe(host, monknet.StatusHandler(s)); err != nil {
		log.Print(err)
	}
}
