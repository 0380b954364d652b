package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lowir/internal/datalayout"
	"lowir/internal/diag"
	"lowir/internal/lower"
	"lowir/internal/moduleio"
	"lowir/internal/observ"
	"lowir/internal/srcir"
	"lowir/internal/targetir"
)

var lowerCmd = &cobra.Command{
	Use:   "lower [flags] <module.lim>...",
	Short: "Lower serialized modules to target IR",
	Long: "Lower reads serialized dialect IR modules, converts each one to target IR, " +
		"and writes the textual target form next to the input (or into --out-dir).",
	Args: cobra.MinimumNArgs(1),
	RunE: lowerExecution,
}

func init() {
	lowerCmd.Flags().String("layout", "", "TOML file with the target data layout")
	lowerCmd.Flags().StringP("out-dir", "o", "", "directory for the converted output")
	lowerCmd.Flags().Bool("emit-source", false, "also dump the source module form")
	lowerCmd.Flags().Int("jobs", 4, "how many modules to convert in parallel")
}

func lowerExecution(cmd *cobra.Command, args []string) error {
	layoutPath, err := cmd.Flags().GetString("layout")
	if err != nil {
		return err
	}
	outDir, err := cmd.Flags().GetString("out-dir")
	if err != nil {
		return err
	}
	emitSource, err := cmd.Flags().GetBool("emit-source")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}
	timings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return err
	}
	maxDiags, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}

	layout := datalayout.Default()
	if layoutPath != "" {
		layout, err = datalayout.LoadTOML(layoutPath)
		if err != nil {
			return err
		}
	}
	if jobs < 1 || timings {
		// timings force sequential runs so the phase report stays ordered
		jobs = 1
	}

	var mu sync.Mutex
	bag := diag.NewBag(maxDiags)
	timer := observ.NewTimer()

	// modules are independent conversion units; each one converts
	// single-threaded for deterministic per-module diagnostics
	var g errgroup.Group
	g.SetLimit(jobs)
	for _, path := range args {
		path := path
		g.Go(func() error {
			ferr := lowerOne(path, layout, outDir, emitSource, timings, timer)
			if ferr != nil {
				mu.Lock()
				bag.Add(diag.FromError(filepath.Base(path), ferr))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if bag.Len() > 0 {
		diag.NewRenderer(os.Stderr, useColor(colorMode, os.Stderr)).RenderAll(bag)
	}
	if timings && !quiet {
		fmt.Fprint(os.Stderr, timer.Summary())
	}
	if bag.HasErrors() {
		return errors.New("conversion failed")
	}
	if !quiet {
		fmt.Fprintf(os.Stderr, "lowered %d module(s)\n", len(args))
	}
	return nil
}

func lowerOne(path string, layout datalayout.Layout, outDir string, emitSource, timings bool, timer *observ.Timer) error {
	begin := func(name string) int {
		if !timings {
			return -1
		}
		return timer.Begin(filepath.Base(path) + " " + name)
	}

	idx := begin("decode")
	mod, types, err := moduleio.ReadFile(path)
	timer.End(idx)
	if err != nil {
		return err
	}
	if err := srcir.Validate(mod, types); err != nil {
		return err
	}

	if emitSource {
		var sb strings.Builder
		if err := srcir.DumpModule(&sb, mod, types); err != nil {
			return err
		}
		if err := writeOutput(path, outDir, ".src.txt", sb.String()); err != nil {
			return err
		}
	}

	idx = begin("convert")
	conv, err := lower.ConvertModule(mod, types, layout)
	timer.End(idx)
	if err != nil {
		return err
	}

	idx = begin("render")
	var sb strings.Builder
	err = targetir.RenderModule(&sb, conv.Module, conv.Types)
	timer.End(idx)
	if err != nil {
		return err
	}
	return writeOutput(path, outDir, ".ll", sb.String())
}

func writeOutput(inPath, outDir, ext, content string) error {
	base := strings.TrimSuffix(filepath.Base(inPath), moduleio.Ext)
	dir := filepath.Dir(inPath)
	if outDir != "" {
		dir = outDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(dir, base+ext), []byte(content), 0o644)
}
