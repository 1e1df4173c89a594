package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/HimbeerserverDE/monknet"
)

var errQuit = errors.New("quit")

// sender is the part of a Session the console uses
type sender interface {
	SendString(str string) error
	SendMessage(m monknet.Message) error
	Peers() []monknet.PeerInfo
	Unacked() int
}

type consoleCommand struct {
	usage    string
	function func(s sender, param string) error
}

var consoleCommands map[string]consoleCommand

func init() {
	consoleCommands = map[string]consoleCommand{
		"anim": {"anim <index>", cmdAnim},
		"pos":  {"pos <x>,<y>", cmdPos},
		"send": {"send <type> [contents]", cmdSend},
		"peers": {"peers", func(s sender, _ string) error {
			for _, p := range s.Peers() {
				log.Printf("%s anim=%d pos=%s unacked=%d", p.Addr, p.Animation, p.Position, p.Unacked)
			}
			return nil
		}},
		"unacked": {"unacked", func(s sender, _ string) error {
			log.Printf("%d messages not acknowledged", s.Unacked())
			return nil
		}},
		"help": {"help", cmdHelp},
		"quit": {"quit", func(sender, string) error { return errQuit }},
	}
}

func cmdAnim(s sender, param string) error {
	if _, err := monknet.ParseAnimation(param); err != nil {
		return fmt.Errorf("usage: %s", consoleCommands["anim"].usage)
	}

	return s.SendMessage(monknet.NewMessage(monknet.TypePlayerAnimation, param))
}

func cmdPos(s sender, param string) error {
	pos, err := monknet.ParsePosition(param)
	if err != nil {
		return fmt.Errorf("usage: %s", consoleCommands["pos"].usage)
	}

	return s.SendMessage(monknet.NewMessage(monknet.TypePlayerPosition, pos.String()))
}

func cmdSend(s sender, param string) error {
	parts := strings.SplitN(param, " ", 2)
	if parts[0] == "" {
		return fmt.Errorf("usage: %s", consoleCommands["send"].usage)
	}

	var contents string
	if len(parts) > 1 {
		contents = parts[1]
	}

	return s.SendMessage(monknet.NewMessage(parts[0], contents))
}

func cmdHelp(sender, string) error {
	log.Print("Available commands:")
	for _, cmd := range consoleCommands {
		log.Print("  " + cmd.usage)
	}
	log.Print("Anything else is sent as a message type")

	return nil
}

// runCommand executes one console line
func runCommand(s sender, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	params := strings.SplitN(line, " ", 2)

	cmd, ok := consoleCommands[params[0]]
	if !ok {
		return s.SendString(line)
	}

	var param string
	if len(params) > 1 {
		param = strings.TrimSpace(params[1])
	}

	return cmd.function(s, param)
}

// console reads commands from r until it ends or quit is entered
func console(s sender, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		err := runCommand(s, scanner.Text())
		if errors.Is(err, errQuit) {
			return
		}

		if err != nil {
			log.Print(err)
		}
	}
}
