// Command sgmerge packs a specular map and a glossiness map into one ARGB
// texture whose alpha channel carries glossiness.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/specgloss"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "merge":
		if err := runMerge(os.Args[2:]); err != nil {
			fail(err)
		}
	case "bench":
		if err := runBench(os.Args[2:]); err != nil {
			fail(err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: sgmerge <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  merge -out packed.png [-sm specular.png] [-sc color] [-gm gloss.png] [-gf 0.5] [-workers N] [-v]")
	fmt.Fprintln(os.Stderr, "        (-out ending in .sgpk writes the zstd packed container)")
	fmt.Fprintln(os.Stderr, "  bench [-sm specular.png] [-sc color] [-gm gloss.png] [-gf 0.5] [-workers N] [-n 10] [-v]")
}

// inputFlags are the flags shared by every command that runs a merge.
type inputFlags struct {
	specularMap   *string
	specularColor *string
	glossMap      *string
	glossiness    *string
	workers       *int
	verbose       *bool
}

func addInputFlags(fs *flag.FlagSet) inputFlags {
	return inputFlags{
		specularMap:   fs.String("sm", "", "specular map image"),
		specularColor: fs.String("sc", "", "specular color (#rrggbb, #rgb or a CSS name) used without -sm"),
		glossMap:      fs.String("gm", "", "glossiness map image; its red channel becomes alpha"),
		glossiness:    fs.String("gf", "", "glossiness in [0,1] used without -gm"),
		workers:       fs.Int("workers", 0, "worker goroutines (0 = GOMAXPROCS)"),
		verbose:       fs.Bool("v", false, "debug logging"),
	}
}

func (in inputFlags) setupLogger() {
	level := slog.LevelInfo
	if *in.verbose {
		level = slog.LevelDebug
	}
	specgloss.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// request loads both maps concurrently. A map that fails to load is
// reported and replaced by its scalar fallback.
func (in inputFlags) request() (specgloss.MergeRequest, error) {
	req := specgloss.MergeRequest{
		SpecularColor: specgloss.ColorOrDefault(*in.specularColor),
		Glossiness:    specgloss.GlossinessOrDefault(*in.glossiness),
	}

	maps := []struct {
		kind string
		path string
		dst  **specgloss.PixelBuffer
		err  error
	}{
		{kind: "specular", path: *in.specularMap, dst: &req.SpecularMap},
		{kind: "glossiness", path: *in.glossMap, dst: &req.GlossinessMap},
	}

	var g errgroup.Group
	for i := range maps {
		m := &maps[i]
		if m.path == "" {
			continue
		}
		g.Go(func() error {
			buf, err := specgloss.LoadMap(m.path)
			if err != nil {
				m.err = fmt.Errorf("%s map: %w", m.kind, err)
				return m.err
			}
			*m.dst = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, m := range maps {
			if m.err != nil {
				specgloss.Logger().Warn("sgmerge: map not loaded, using scalar fallback",
					"map", m.kind,
					"error", m.err)
			}
		}
	}

	if req.SpecularMap == nil && req.GlossinessMap == nil {
		return req, specgloss.ErrMissingSource
	}
	return req, nil
}

func runMerge(args []string) error {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	in := addInputFlags(fs)
	outPath := fs.String("out", "", "output file (.png or .sgpk)")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outPath == "" {
		return errors.New("missing required arguments")
	}
	in.setupLogger()

	req, err := in.request()
	if err != nil {
		return err
	}

	m := specgloss.NewMerger(specgloss.WithWorkers(*in.workers))
	defer m.Close()

	start := time.Now()
	out, err := m.Merge(req)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if strings.EqualFold(filepath.Ext(*outPath), ".sgpk") {
		err = out.SavePacked(*outPath)
	} else {
		err = out.SavePNG(*outPath)
	}
	if err != nil {
		return err
	}

	w, h := out.Bounds()
	specgloss.Logger().Info("sgmerge: wrote texture",
		"out", *outPath,
		"width", w,
		"height", h,
		"workers", m.Workers(),
		"elapsed", elapsed)
	return nil
}

func runBench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	in := addInputFlags(fs)
	n := fs.Int("n", 10, "iterations per variant")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n <= 0 {
		return errors.New("-n must be positive")
	}
	in.setupLogger()

	req, err := in.request()
	if err != nil {
		return err
	}

	serial := specgloss.NewMerger(specgloss.WithWorkers(1))
	defer serial.Close()
	pooled := specgloss.NewMerger(specgloss.WithWorkers(*in.workers))
	defer pooled.Close()

	variants := []struct {
		name  string
		merge func(specgloss.MergeRequest) (*specgloss.PixelBuffer, error)
	}{
		{"reference", specgloss.MergeReference},
		{"rows, 1 worker", serial.Merge},
		{fmt.Sprintf("rows, %d workers", pooled.Workers()), pooled.Merge},
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "variant\tper merge\ttotal")
	var base time.Duration
	for i, v := range variants {
		start := time.Now()
		for range *n {
			if _, err := v.merge(req); err != nil {
				return fmt.Errorf("%s: %w", v.name, err)
			}
		}
		total := time.Since(start)
		per := total / time.Duration(*n)
		if i == 0 {
			base = per
		}
		speedup := ""
		if i > 0 && per > 0 {
			speedup = fmt.Sprintf(" (%.1fx)", float64(base)/float64(per))
		}
		fmt.Fprintf(tw, "%s\t%v%s\t%v\n", v.name, per, speedup, total)
	}
	return tw.Flush()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
