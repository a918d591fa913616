// CLAUDE:SUMMARY CLI subcommand calling the MCP tools of a running server over QUIC.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hazyhaar/entitycorrect/pkg/mcpquic"
)

func cmdRemote(args []string) {
	fs := flag.NewFlagSet("remote", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8420", "server address (QUIC)")
	insecure := fs.Bool("insecure", true, "accept self-signed server certificates")
	dicts := fs.String("dicts", "", "comma-separated dictionary filter")
	list := fs.Bool("list", false, "list the server's dictionaries instead of correcting")
	timeout := fs.Duration("timeout", 30*time.Second, "call timeout")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := mcpquic.NewClient(*addr, mcpquic.ClientTLSConfig(*insecure))
	if err := c.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	var (
		out string
		err error
	)
	switch {
	case *list:
		out, err = c.CallToolText(ctx, "list_dicts", nil)
	case fs.NArg() == 1:
		out, err = c.CallToolText(ctx, "correct_text", map[string]any{"text": fs.Arg(0), "dicts": *dicts})
	case fs.NArg() > 1:
		texts := make([]any, fs.NArg())
		for i, t := range fs.Args() {
			texts[i] = t
		}
		out, err = c.CallToolText(ctx, "correct_batch", map[string]any{"texts": texts, "dicts": *dicts})
	default:
		fmt.Fprintln(os.Stderr, "Usage: entitycorrect remote [--addr host:port] [--dicts a,b] <text>... | --list")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "call: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}
