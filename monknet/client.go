package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/HimbeerserverDE/monknet"
)

func clientCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "client <address>",
		Short: "Connect to a server",
		Long: `Connect to a server and send the lines read from stdin.

  anim <index>            send a player_animation message
  pos <x>,<y>             send a player_position message
  send <type> [contents]  send any message
  unacked                 show how many messages wait for confirmation
  quit                    disconnect

Any other line is sent as a message type without contents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			defer startLogging(conf.String("log_file", "log/latest.txt"))()

			s := monknet.NewSession(conf, monknet.Handler{
				OnMessage: func(role monknet.Role, d monknet.Datagram) {
					if d.Msg.Kind() != monknet.KindReceived {
						log.Printf("%s: %s %s", d.Addr, d.Msg.Type, d.Msg.Contents)
					}
				},
			})

			if err := s.SetupClient(args[0]); err != nil {
				s.Close()
				return err
			}

			quit := make(chan struct{})
			go func() {
				console(s, os.Stdin)
				close(quit)
			}()

			select {
			case <-interrupted():
			case <-quit:
			}

			return s.Close()
		},
	}
}
