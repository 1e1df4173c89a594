package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/HimbeerserverDE/monknet"
)

func banCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ban",
		Short: "Manage the ban list",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <ip> [reason]",
			Short: "Ban an ip address",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				reason := "Banned."
				if len(args) > 1 {
					reason = strings.Join(args[1:], " ")
				}

				return withStore(func(db *monknet.DB) error {
					return db.Ban(args[0], reason)
				})
			},
		},
		&cobra.Command{
			Use:   "rm <ip>",
			Short: "Unban an ip address",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(func(db *monknet.DB) error {
					return db.Unban(args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List banned ip addresses",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(func(db *monknet.DB) error {
					bans, err := db.BanList()
					if err != nil {
						return err
					}

					addrs := make([]string, 0, len(bans))
					for addr := range bans {
						addrs = append(addrs, addr)
					}
					sort.Strings(addrs)

					for _, addr := range addrs {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", addr, bans[addr])
					}
					return nil
				})
			},
		},
	)

	return cmd
}

func withStore(f func(db *monknet.DB) error) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(conf)
	if err != nil {
		return err
	}
	defer db.Close()

	return f(db)
}
