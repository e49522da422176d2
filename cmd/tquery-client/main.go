package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vk/tquery/internal/client"
)

// main sends one query to a running tquery server and prints the reply.
func main() {
	if err := run(context.Background(), os.Stdout, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, outW io.Writer, args []string) error {
	flagSet := flag.NewFlagSet("tquery-client", flag.ContinueOnError)
	flagSet.SetOutput(outW)
	flagSet.Usage = func() {
		fmt.Fprint(outW, `
tquery-client - sends one query to a tquery server.

Usage:
  tquery-client [options] QUERY...

Examples:
  tquery-client from Alewife to Braintree
  tquery-client -transport socketio -addr http://127.0.0.1:8080 disable Park Street

Options:
`)
		flagSet.PrintDefaults()
	}

	addr := flagSet.String("addr", "127.0.0.1:12345", "Server address. A host:port for tcp, a URL for socketio.")
	transport := flagSet.String("transport", "tcp", "Transport to use. Options: 'tcp' or 'socketio'.")
	timeout := flagSet.Duration("timeout", 10*time.Second, "Give up after this long.")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	line := strings.Join(flagSet.Args(), " ")
	if line == "" {
		flagSet.Usage()
		return errors.New("no query given")
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var (
		reply string
		err   error
	)
	switch *transport {
	case "tcp":
		reply, err = client.QueryTCP(ctx, *addr, line)
	case "socketio":
		reply, err = client.QuerySocketIO(ctx, *addr, line)
	default:
		return fmt.Errorf("unknown transport %q", *transport)
	}
	if err != nil {
		return err
	}

	if !strings.HasSuffix(reply, "\n") {
		reply += "\n"
	}
	_, err = io.WriteString(outW, reply)
	return err
}
