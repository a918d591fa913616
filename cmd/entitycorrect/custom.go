// CLAUDE:SUMMARY CLI subcommand maintaining the Redis custom synonym hash (add, remove, list).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/entitycorrect/pkg/customdict"
	"github.com/redis/go-redis/v9"
)

func cmdCustom(args []string) {
	fs := flag.NewFlagSet("custom", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, _ := mustConfig(*cfgPath)
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		fmt.Fprintln(os.Stderr, "custom: no redis section in config")
		os.Exit(1)
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis url: %v\n", err)
		os.Exit(1)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	key := cfg.Redis.Key
	if key == "" {
		key = customdict.DefaultKey
	}
	cd := customdict.New(client, key)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: entitycorrect custom add <canonical> <variant>... | remove <canonical> | list")
		os.Exit(1)
	}

	switch rest[0] {
	case "add":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "custom add: canonical name required")
			os.Exit(1)
		}
		err = cd.Add(ctx, rest[1], rest[2:]...)
	case "remove":
		if len(rest) != 2 {
			fmt.Fprintln(os.Stderr, "custom remove: canonical name required")
			os.Exit(1)
		}
		err = cd.Remove(ctx, rest[1])
	case "list":
		records, lerr := cd.All(ctx)
		if lerr != nil {
			err = lerr
			break
		}
		for _, r := range records {
			fmt.Println(strings.Join(r.Variants, "\t"))
		}
	default:
		fmt.Fprintf(os.Stderr, "custom: unknown action %q\n", rest[0])
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "custom %s: %v\n", rest[0], err)
		os.Exit(1)
	}
}
