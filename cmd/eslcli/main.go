// Command eslcli is a one-shot ESL command runner: it dials a
// FreeSWITCH event socket, issues a single api/bgapi/originate command,
// prints the reply, and exits. It replaces the teacher's fixed-script
// example/fsswitch/{inbound,outbound} demos with a small, configurable
// tool built on the fsswitch package.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	eslog "github.com/fsswitch/eslclient/internal/log"

	"github.com/fsswitch/eslclient/fsswitch"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: eslcli [-config file] [-host host] [-port port] [-password pass] <command> [args...]

commands:
  api <fs-api-command>        run a synchronous api command, print the result
  bgapi <fs-api-command>      run a background api command, print the Job-UUID ack
  originate <endpoint> <apps> [dialplan]
                               build and run an originate command
  events <event-name...>      subscribe (plain format) and print events until interrupted

`)
	flag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to eslcli.toml")
	host := flag.String("host", "", "override configured host")
	port := flag.Int("port", 0, "override configured port")
	user := flag.String("user", "", "override configured user (switches to ConnectUser)")
	password := flag.String("password", "", "override configured password")
	flag.Usage = usage
	flag.Parse()

	cfg, err := loadCLIConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *user != "" {
		cfg.User = *user
	}
	if *password != "" {
		cfg.Password = *password
	}

	eslog.Configure(eslog.Config{Level: cfg.LogLevel})
	logger := eslog.WithComponent("eslcli")

	args := flag.Args()
	if len(args) < 1 {
		usage()
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var client *fsswitch.Client
	if cfg.User != "" {
		client, err = fsswitch.ConnectUser(ctx, cfg.address(), cfg.User, cfg.Password, fsswitch.WithLogger(logger))
	} else {
		client, err = fsswitch.Connect(ctx, cfg.address(), cfg.Password, fsswitch.WithLogger(logger))
	}
	if err != nil {
		logger.Error().Err(err).Str("address", cfg.address()).Msg("connect failed")
		return 1
	}
	defer client.Disconnect()
	client.SetCommandTimeout(cfg.CommandTimeout)
	client.SetLivenessTimeout(cfg.LivenessTimeout)

	switch args[0] {
	case "api":
		return runApi(client, args[1:])
	case "bgapi":
		return runBgApi(client, args[1:])
	case "originate":
		return runOriginate(client, args[1:])
	case "events":
		return runEvents(client, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "eslcli: unknown command %q\n", args[0])
		usage()
		return 2
	}
}

func runApi(client *fsswitch.Client, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "eslcli: api requires a command string")
		return 2
	}
	resp, err := client.Api(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintln(os.Stderr, "eslcli:", err)
		return 1
	}
	printResponse(resp)
	return 0
}

func runBgApi(client *fsswitch.Client, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "eslcli: bgapi requires a command string")
		return 2
	}
	resp, err := client.BgApi(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintln(os.Stderr, "eslcli:", err)
		return 1
	}
	printResponse(resp)
	return 0
}

func runOriginate(client *fsswitch.Client, args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "eslcli: originate requires <endpoint> <apps> [dialplan]")
		return 2
	}
	wire := "originate " + strings.Join(args, " ")
	o, err := fsswitch.ParseOriginate(wire)
	if err != nil {
		fmt.Fprintln(os.Stderr, "eslcli: invalid originate command:", err)
		return 2
	}
	resp, err := client.Originate(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, "eslcli:", err)
		return 1
	}
	printResponse(resp)
	return 0
}

func runEvents(client *fsswitch.Client, names []string) int {
	if len(names) == 0 {
		names = []string{"ALL"}
	}
	if _, err := client.SubscribeEvents(fsswitch.FormatPlain, names...); err != nil {
		fmt.Fprintln(os.Stderr, "eslcli: subscribe failed:", err)
		return 1
	}

	stream := client.Events()
	ctx := context.Background()
	for {
		ev, err := stream.Recv(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "eslcli:", err)
			return 1
		}
		if ev == nil {
			status, reason := stream.Status()
			fmt.Fprintf(os.Stderr, "eslcli: stream ended, status=%v reason=%v\n", status, reason)
			return 0
		}
		fmt.Println(ev.PrettyPrint())
	}
}

func printResponse(resp *fsswitch.Response) {
	if body, ok := resp.Body(); ok && body != "" {
		fmt.Println(body)
		return
	}
	for _, h := range resp.Headers() {
		fmt.Printf("%s: %s\n", h.Name, h.Value)
	}
}
