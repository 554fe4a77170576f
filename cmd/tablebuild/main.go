package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tablejig/internal/builder"
	"tablejig/internal/config"
	"tablejig/internal/logger"
)

// main is the entry point for the tablebuild binary. It loads the pipeline
// config, optionally initializes a metrics backend, runs the build, and
// writes the consolidated table as CSV.
func main() {
	var (
		cfgPath  string
		outPath  string
		validate bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipelines/sample.json", "pipeline config JSON path")
	flag.StringVar(&outPath, "out", "", "output CSV path (overrides config; \"-\" for stdout)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	// Validate pipeline config.
	issues := config.ValidatePipeline(p)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}

	// If validate flag is set, only validate the configuration and exit
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	flush, err := config.ConfigureMetrics(p)
	if err != nil {
		log.Printf("metrics: %v; metrics disabled", err)
	}
	defer func() {
		if err := flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	blog := logger.NewStandardLogger(os.Stderr)
	if *verbose {
		blog = logger.NewVerboseLogger(os.Stderr)
	}

	b, err := config.Assemble(p, builder.WithLogger(blog))
	if err != nil {
		fatalf("assemble pipeline: %v", err)
	}

	ctx := context.Background()
	start := time.Now()

	tbl, err := b.Build(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("built %d rows x %d columns in %s",
			tbl.NumRows(), tbl.NumCols(), time.Since(start).Truncate(time.Millisecond))
	}

	dest := p.Output.Path
	if outPath != "" {
		dest = outPath
	}
	if dest == "" || dest == "-" {
		if err := tbl.WriteCSV(os.Stdout); err != nil {
			fatalf("write output: %v", err)
		}
		return
	}

	f, err := os.Create(dest)
	if err != nil {
		fatalf("create output: %v", err)
	}
	if err := tbl.WriteCSV(f); err != nil {
		f.Close()
		fatalf("write output: %v", err)
	}
	if err := f.Close(); err != nil {
		fatalf("close output: %v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
