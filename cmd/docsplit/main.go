package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dgallion1/docsplit/internal/api"
	"github.com/dgallion1/docsplit/internal/atomizer"
	"github.com/dgallion1/docsplit/internal/config"
	"github.com/dgallion1/docsplit/internal/diagram"
	"github.com/dgallion1/docsplit/internal/parser"
	"github.com/dgallion1/docsplit/internal/splitter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:   "docsplit",
		Short: "Structural document splitting",
		Long:  "docsplit divides a document into N contiguous sections along structural boundaries, without altering a single byte of content.",
	}

	rootCmd.AddCommand(
		atomsCmd(cfg),
		splitCmd(cfg),
		sectionsCmd(cfg),
		diagramCmd(cfg),
		serveCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func atomizerConfig(cfg config.Config) atomizer.Config {
	return atomizer.Config{
		BoldMaxLen:   cfg.PseudoBoldMaxLen,
		CapsMaxLen:   cfg.PseudoCapsMaxLen,
		CapsMinRatio: cfg.PseudoCapsRatio,
	}
}

// loadSource resolves the document from --text or a file argument.
func loadSource(args []string, inline string) (*parser.Source, error) {
	if inline != "" {
		return &parser.Source{Text: inline}, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("provide a file argument or --text")
	}
	return loadFile(args[0])
}

func loadFile(path string) (*parser.Source, error) {
	loader, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, err := loader.Load(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return src, nil
}

func atomsCmd(cfg config.Config) *cobra.Command {
	var inline string
	var asJSON bool
	var maxPreview int

	cmd := &cobra.Command{
		Use:   "atoms [file]",
		Short: "Print the atom table and section tree for a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := loadSource(args, inline)
			if err != nil {
				return err
			}
			res := atomizer.AtomizeWith(src.Text, atomizerConfig(cfg))

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"mode":     res.Mode,
					"warnings": res.Warnings,
					"atoms":    res.Atoms,
					"sections": res.Sections.Nodes(),
				})
			}

			fmt.Printf("Detected mode: %s\n", res.Mode)
			fmt.Printf("Num atoms: %d\n", len(res.Atoms))
			fmt.Printf("Num sections: %d\n", res.Sections.Len())
			for _, warn := range res.Warnings {
				fmt.Printf("Warning (line %d): %s\n", warn.Line, warn.Message)
			}
			printAtomTable(res, maxPreview)
			return nil
		},
	}
	cmd.Flags().StringVar(&inline, "text", "", "inline text instead of a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.Flags().IntVar(&maxPreview, "max-preview", 60, "max preview chars per atom")
	return cmd
}

func printAtomTable(res *atomizer.Result, maxPreview int) {
	fmt.Printf("%4s  %-14s %-11s %-15s %6s %6s %3s %3s %4s %4s %-12s %-30s  preview\n",
		"idx", "kind", "lines", "bytes", "words", "chars", "dep", "cut", "bnd", "sid", "pid", "path")
	fmt.Println(strings.Repeat("-", 140))

	for _, a := range res.Atoms {
		pid := "-"
		if len(a.SectionPathIDs) > 0 {
			parts := make([]string, len(a.SectionPathIDs))
			for i, id := range a.SectionPathIDs {
				parts[i] = fmt.Sprintf("%d", id)
			}
			pid = strings.Join(parts, "/")
		}
		path := "-"
		if len(a.SectionPath) > 0 {
			path = strings.Join(a.SectionPath, "/")
		}
		if len(path) > 30 {
			path = path[:27] + "…"
		}
		fmt.Printf("%4d  %-14s %-11s %-15s %6d %6d %3d %3d %4.2f %4d %-12s %-30s  %s\n",
			a.Index, a.Kind,
			fmt.Sprintf("%d-%d", a.StartLine, a.EndLine),
			fmt.Sprintf("%d-%d", a.StartByte, a.EndByte),
			a.WeightWords, a.WeightChars, a.Depth, boolInt(a.CanCutBefore),
			a.BoundaryStrength, a.SectionNodeID, pid, path,
			preview(a.Text, maxPreview))
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func preview(text string, n int) string {
	s := strings.Join(strings.Fields(text), " ")
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n]) + "…"
	}
	return s
}

func splitCmd(cfg config.Config) *cobra.Command {
	var inline, objective string
	var n int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "split [file...]",
		Short: "Compute a balanced split plan for one or more documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := splitter.ParseMetric(objective)
			if err != nil {
				return err
			}

			if inline != "" || len(args) <= 1 {
				src, err := loadSource(args, inline)
				if err != nil {
					return err
				}
				return splitOne(cfg, src, n, metric, asJSON)
			}

			// Each document is an independent pure computation; fan
			// out across files.
			var g errgroup.Group
			g.SetLimit(8)
			plans := make([]*splitter.Plan, len(args))
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					src, err := loadFile(path)
					if err != nil {
						return err
					}
					res := atomizer.AtomizeWith(src.Text, atomizerConfig(cfg))
					plans[i], err = splitter.SplitWith(res.Atoms, n, splitter.Options{Metric: metric})
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for i, plan := range plans {
				fmt.Printf("== %s\n", args[i])
				printPlan(plan, asJSON)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&inline, "text", "", "inline text instead of a file")
	cmd.Flags().IntVarP(&n, "sections", "n", cfg.DefaultSections, "number of sections")
	cmd.Flags().StringVar(&objective, "objective", cfg.Objective, "balance objective: squared or absolute")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func splitOne(cfg config.Config, src *parser.Source, n int, metric splitter.Metric, asJSON bool) error {
	res := atomizer.AtomizeWith(src.Text, atomizerConfig(cfg))
	plan, err := splitter.SplitWith(res.Atoms, n, splitter.Options{Metric: metric})
	if err != nil {
		return err
	}
	printPlan(plan, asJSON)
	return nil
}

func printPlan(plan *splitter.Plan, asJSON bool) {
	if asJSON {
		json.NewEncoder(os.Stdout).Encode(plan)
		return
	}
	fmt.Printf("N=%d metric=%s objective=%.2f cuts=%v\n", plan.N, plan.Metric, plan.Objective, plan.Cuts)
	for _, seg := range plan.Segments {
		title := "-"
		if len(seg.StartPathTitles) > 0 {
			title = strings.Join(seg.StartPathTitles, "/")
		}
		fmt.Printf("  seg %d: atoms %d-%d, %d words, starts in %s\n",
			seg.SegIdx, seg.StartAtom, seg.EndAtomExcl-1, seg.Words, title)
	}
}

func sectionsCmd(cfg config.Config) *cobra.Command {
	var inline, objective, outDir string
	var n int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sections [file]",
		Short: "Materialize the N literal sections of a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := splitter.ParseMetric(objective)
			if err != nil {
				return err
			}
			src, err := loadSource(args, inline)
			if err != nil {
				return err
			}
			res := atomizer.AtomizeWith(src.Text, atomizerConfig(cfg))
			plan, err := splitter.SplitWith(res.Atoms, n, splitter.Options{Metric: metric})
			if err != nil {
				return err
			}
			sections, err := splitter.Materialize(src.Text, res.Atoms, plan.Cuts)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"n":        plan.N,
					"cuts":     plan.Cuts,
					"sections": sections,
				})
			}

			if outDir != "" {
				return writeSections(sections, args, outDir)
			}

			for i, sec := range sections {
				fmt.Printf("=== section %d (%d bytes) ===\n", i+1, len(sec))
				fmt.Print(sec)
				if !strings.HasSuffix(sec, "\n") {
					fmt.Println()
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&inline, "text", "", "inline text instead of a file")
	cmd.Flags().IntVarP(&n, "sections", "n", cfg.DefaultSections, "number of sections")
	cmd.Flags().StringVar(&objective, "objective", cfg.Objective, "balance objective: squared or absolute")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "write each section to a file in this directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func writeSections(sections []string, args []string, outDir string) error {
	base, ext := "section", ".txt"
	if len(args) == 1 {
		name := filepath.Base(args[0])
		ext = filepath.Ext(name)
		base = strings.TrimSuffix(name, ext)
		if ext == "" {
			ext = ".txt"
		}
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for i, sec := range sections {
		path := filepath.Join(outDir, fmt.Sprintf("%s.part%02d%s", base, i+1, ext))
		if err := os.WriteFile(path, []byte(sec), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d bytes)\n", path, len(sec))
	}
	return nil
}

func diagramCmd(cfg config.Config) *cobra.Command {
	var inline, out, direction string
	var n int
	var withAtoms, withStats, noPseudo bool

	cmd := &cobra.Command{
		Use:   "diagram [file]",
		Short: "Emit a Mermaid flowchart of the section hierarchy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := loadSource(args, inline)
			if err != nil {
				return err
			}
			res := atomizer.AtomizeWith(src.Text, atomizerConfig(cfg))

			var segments []splitter.Segment
			if withAtoms && n > 1 {
				metric, _ := splitter.ParseMetric(cfg.Objective)
				plan, err := splitter.SplitWith(res.Atoms, n, splitter.Options{Metric: metric})
				if err != nil {
					return err
				}
				segments = plan.Segments
			}

			opts := diagram.DefaultOptions()
			opts.Direction = direction
			opts.IncludeAtoms = withAtoms
			opts.IncludeStats = withStats
			opts.IncludePseudoHeadings = !noPseudo

			mm := diagram.Mermaid(res.Atoms, res.Sections, segments, opts)
			if out != "" {
				if err := os.WriteFile(out, []byte("```mermaid\n"+mm+"```\n"), 0o644); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", out)
				return nil
			}
			fmt.Print(mm)
			return nil
		},
	}
	cmd.Flags().StringVar(&inline, "text", "", "inline text instead of a file")
	cmd.Flags().StringVar(&out, "out", "", "write Mermaid markdown to this file")
	cmd.Flags().StringVar(&direction, "dir", cfg.DiagramDirection, "flowchart direction: TD, LR, RL, BT")
	cmd.Flags().IntVarP(&n, "sections", "n", 0, "color atoms by segment of an N-way split")
	cmd.Flags().BoolVar(&withAtoms, "atoms", false, "include leaf atom nodes")
	cmd.Flags().BoolVar(&withStats, "stats", false, "include section stats in labels")
	cmd.Flags().BoolVar(&noPseudo, "no-pseudo", false, "exclude pseudo headings")
	return cmd
}

func serveCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the docsplit HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			srv := api.NewServer(log, cfg)
			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown.
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				<-sigCh
				log.Info("shutting down...")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			log.Info("starting docsplit", "port", cfg.Port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
}
