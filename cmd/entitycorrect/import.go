// CLAUDE:SUMMARY CLI subcommand that downloads configured sources and builds dictionary directories via import adapters.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hazyhaar/entitycorrect/pkg/importer"
)

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	source := fs.String("source", "", "adapter ID to import")
	all := fs.Bool("all", false, "import all configured sources")
	outputDir := fs.String("output-dir", "", "output directory for dictionaries (default: dicts_dir)")
	setURL := fs.String("set-url", "", "override the stored URL of --source before importing")
	stale := fs.Duration("stale", 0, "import only sources not imported within this duration (with --all)")
	fs.Parse(args)

	cfg, _ := mustConfig(*cfgPath)
	if *outputDir != "" {
		cfg.DictsDir = *outputDir
	}

	sdb, err := openSources(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open sources: %v\n", err)
		os.Exit(1)
	}
	defer sdb.Close()

	if !*all && *source == "" {
		fmt.Println("Available sources:")
		fmt.Println()
		sources, _ := sdb.ListSources()
		for _, src := range sources {
			status := ""
			if !src.LastCheck.IsZero() {
				status = fmt.Sprintf("  [%d]", src.LastStatus)
			}
			if src.Imported() {
				status += fmt.Sprintf("  %d records, %s", src.LastRecords, src.LastImport.Format(time.DateOnly))
			}
			fmt.Printf("  %-25s  %s  (-> %s)%s\n", src.AdapterID, src.Description, src.DictID, status)
		}
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  entitycorrect import --source <id> [--set-url <url>] [--output-dir <dir>]")
		fmt.Println("  entitycorrect import --all [--stale 168h] [--output-dir <dir>]")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	if *all {
		adapters, err := selectAdapters(sdb, *stale)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list sources: %v\n", err)
			os.Exit(1)
		}
		failed := 0
		for _, a := range adapters {
			if err := runImport(ctx, sdb, a, cfg.DictsDir); err != nil {
				fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", a.ID(), err)
				failed++
			}
		}
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	a, err := importer.Get(*source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		fmt.Println("\nAvailable sources:")
		for _, a := range importer.All() {
			fmt.Printf("  %s\n", a.ID())
		}
		os.Exit(1)
	}
	if *setURL != "" {
		if err := sdb.SetURL(a.ID(), *setURL); err != nil {
			fmt.Fprintf(os.Stderr, "[%s] set url: %v\n", a.ID(), err)
			os.Exit(1)
		}
	}
	if err := runImport(ctx, sdb, a, cfg.DictsDir); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] ERROR: %v\n", a.ID(), err)
		os.Exit(1)
	}
}

func runImport(ctx context.Context, sdb *importer.SourceDB, a importer.Adapter, outputDir string) error {
	url, err := sdb.GetURL(a.ID())
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	fmt.Printf("[%s] importing...\n", a.ID())
	n, err := a.Import(ctx, url, outputDir)
	if err != nil {
		return err
	}
	if err := sdb.RecordImport(a.ID(), n); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	fmt.Printf("[%s] OK, %d records -> %s/%s/ (send SIGHUP to a running server to reload)\n", a.ID(), n, outputDir, a.DictID())
	return nil
}

// selectAdapters returns every registered adapter, or with maxAge > 0 only
// those whose source is stale.
func selectAdapters(sdb *importer.SourceDB, maxAge time.Duration) ([]importer.Adapter, error) {
	if maxAge <= 0 {
		return importer.All(), nil
	}
	sources, err := sdb.Stale(maxAge)
	if err != nil {
		return nil, err
	}
	adapters := make([]importer.Adapter, 0, len(sources))
	for _, src := range sources {
		a, err := importer.Get(src.AdapterID)
		if err != nil {
			continue // row left by a source removed from config
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}
