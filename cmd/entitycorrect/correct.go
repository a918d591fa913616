// CLAUDE:SUMMARY CLI subcommand running a one-shot local correction over a dictionary directory, printing JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hazyhaar/entitycorrect/pkg/correct"
)

func cmdCorrect(args []string) {
	fs := flag.NewFlagSet("correct", flag.ExitOnError)
	dictsDir := fs.String("dicts-dir", "dicts", "directory holding one subdirectory per dictionary")
	dicts := fs.String("dicts", "", "comma-separated dictionary filter")
	text := fs.String("text", "", "text to correct (default: read stdin)")
	fs.Parse(args)

	logger := newLogger("warn")

	input := *text
	if input == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			os.Exit(1)
		}
		input = strings.TrimRight(string(data), "\r\n")
	}

	reg := correct.NewRegistry(*dictsDir, correct.WithLogger(logger))
	if err := reg.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "load dictionaries: %v\n", err)
		os.Exit(1)
	}

	opts := &correct.CorrectOptions{}
	if *dicts != "" {
		opts.Dicts = strings.Split(*dicts, ",")
	}
	res, err := reg.Correct(input, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "correct: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	enc.Encode(res)
}
