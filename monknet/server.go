package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/HimbeerserverDE/monknet"
)

func serverCmd() *cobra.Command {
	var noConsole bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run a server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			defer startLogging(conf.String("log_file", "log/latest.txt"))()

			db, err := openStore(conf)
			if err != nil {
				return err
			}
			defer db.Close()

			s := monknet.NewSession(conf, monknet.Handler{
				OnMessage: func(role monknet.Role, d monknet.Datagram) {
					if d.Msg.Kind() == monknet.KindApplication {
						log.Printf("%s: %s %s", d.Addr, d.Msg.Type, d.Msg.Contents)
					}
				},
				OnJoin: func(p monknet.PeerInfo) {
					log.Print(p.Addr, " joined")
				},
				OnLeave: func(p monknet.PeerInfo) {
					log.Printf("%s left at %s", p.Addr, p.Position)
				},
			}, monknet.WithStore(db))

			if err := s.SetupServer(); err != nil {
				return err
			}

			if host := conf.String("status_host", ""); host != "" {
				go serveStatus(host, s)
			}

			quit := make(chan struct{})
			if !noConsole {
				go func() {
					console(s, os.Stdin)
					close(quit)
				}()
			}

			select {
			case <-interrupted():
			case <-quit:
			}

			return s.Close()
		},
	}

	cmd.Flags().BoolVar(&noConsole, "no-console", false, "don't read commands from stdin")

	return cmd
}
