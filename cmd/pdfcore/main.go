// Command pdfcore exposes the toolkit on the command line: document
// comparison, template-driven generation, metadata inspection and page
// level operations on existing files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/documint/pdfcore/docops"
	"github.com/documint/pdfcore/extractor"
	"github.com/documint/pdfcore/observability"
	"github.com/documint/pdfcore/ocr/tesseract"
	"github.com/documint/pdfcore/toolkit"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "pdfcore",
		Short: "PDF comparison, generation and page tooling",
	}

	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(mergeCmd())
	rootCmd.AddCommand(splitCmd())
	rootCmd.AddCommand(rotateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// cliConfig is the optional YAML config file (--config). Flags given on
// the command line win over file values.
type cliConfig struct {
	OutputDir string `yaml:"output_dir"`
	Compare   struct {
		AddedColor   string  `yaml:"added_color"`
		DeletedColor string  `yaml:"deleted_color"`
		ChangedColor string  `yaml:"changed_color"`
		Opacity      float64 `yaml:"opacity"`
	} `yaml:"compare"`
	OCR struct {
		Enabled   bool     `yaml:"enabled"`
		Languages []string `yaml:"languages"`
	} `yaml:"ocr"`
}

func loadConfig(path string) (cliConfig, error) {
	var cfg cliConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func newToolkit(cfg cliConfig, outputDir string, withOCR bool, verbose bool) *toolkit.Toolkit {
	opts := []toolkit.Option{}
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	if outputDir != "" {
		opts = append(opts, toolkit.WithOutputDir(outputDir))
	}
	if verbose {
		log := observability.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		opts = append(opts, toolkit.WithLogger(log))
	}
	if withOCR || cfg.OCR.Enabled {
		opts = append(opts, toolkit.WithOCREngine(tesseract.New(), cfg.OCR.Languages...))
	}
	return toolkit.New(opts...)
}

func compareCmd() *cobra.Command {
	var (
		configPath string
		outputDir  string
		opacity    float64
		added      string
		deleted    string
		changed    string
		noAnnotate bool
		useOCR     bool
		verbose    bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "compare <old.pdf> <new.pdf>",
		Short: "Diff two documents word by word and write annotated copies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			t := newToolkit(cfg, outputDir, useOCR, verbose)
			opts := toolkit.CompareOptions{
				AddedColor:     firstOf(added, cfg.Compare.AddedColor),
				DeletedColor:   firstOf(deleted, cfg.Compare.DeletedColor),
				ChangedColor:   firstOf(changed, cfg.Compare.ChangedColor),
				Opacity:        opacity,
				AnnotateSource: !noAnnotate,
				AnnotateTarget: !noAnnotate,
			}
			if opts.Opacity == 0 {
				opts.Opacity = cfg.Compare.Opacity
			}
			res, err := t.Compare(ctx, args[0], args[1], opts)
			if err != nil {
				return err
			}
			printCompareResult(res)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for annotated copies")
	cmd.Flags().Float64Var(&opacity, "opacity", 0, "annotation opacity (0..1)")
	cmd.Flags().StringVar(&added, "added-color", "", "hex color for additions")
	cmd.Flags().StringVar(&deleted, "deleted-color", "", "hex color for deletions")
	cmd.Flags().StringVar(&changed, "changed-color", "", "hex color for changes")
	cmd.Flags().BoolVar(&noAnnotate, "no-annotate", false, "report counts only, write no files")
	cmd.Flags().BoolVar(&useOCR, "ocr", false, "recognize scanned pages with tesseract")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall deadline")
	return cmd
}

func printCompareResult(res *toolkit.CompareResult) {
	for _, p := range res.Pages {
		label := ""
		switch {
		case p.PageOld >= 0 && p.PageNew >= 0:
			label = fmt.Sprintf("page %d", p.PageOld+1)
		case p.PageOld >= 0:
			label = fmt.Sprintf("page %d (removed)", p.PageOld+1)
		default:
			label = fmt.Sprintf("page %d (new)", p.PageNew+1)
		}
		fmt.Printf("%-20s +%d -%d ~%d\n", label, p.Added, p.Deleted, p.Changed)
	}
	fmt.Printf("total: %d added, %d deleted, %d changed\n",
		res.Totals.Added, res.Totals.Deleted, res.Totals.Changed)
	if res.SourcePath != "" {
		fmt.Println("annotated source:", res.SourcePath)
	}
	if res.TargetPath != "" {
		fmt.Println("annotated target:", res.TargetPath)
	}
}

func generateCmd() *cobra.Command {
	var (
		configPath string
		outputDir  string
		dataPath   string
		fileName   string
		verbose    bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate <template.(json|yaml)>",
		Short: "Render a template definition to a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			defData, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}
			var dataJSON []byte
			if dataPath != "" {
				dataJSON, err = os.ReadFile(dataPath)
				if err != nil {
					return fmt.Errorf("read data: %w", err)
				}
			}

			t := newToolkit(cfg, outputDir, false, verbose)
			res, err := t.GenerateFromBytes(ctx, defData, dataJSON, fileName)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d pages, %d bytes)\n", res.OutputPath, res.PageCount, res.FileSizeBytes)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for the output file")
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "JSON data file bound to template expressions")
	cmd.Flags().StringVarP(&fileName, "name", "n", "", "output file name (random when empty)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline")
	return cmd
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.pdf>",
		Short: "Print document metadata and page sizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := extractor.Open(args[0])
			if err != nil {
				return err
			}
			printInfo(doc)
			return nil
		},
	}
}

func printInfo(doc *extractor.Document) {
	meta := doc.Metadata()
	show := func(label, val string) {
		if val != "" {
			fmt.Printf("%-12s %s\n", label+":", val)
		}
	}
	show("Title", meta.Title)
	show("Author", meta.Author)
	show("Subject", meta.Subject)
	show("Keywords", meta.Keywords)
	show("Creator", meta.Creator)
	show("Producer", meta.Producer)
	show("Created", meta.CreationDate)
	show("Modified", meta.ModDate)
	fmt.Printf("%-12s %d\n", "Pages:", doc.PageCount())
	for i := 0; i < doc.PageCount(); i++ {
		if w, h, err := doc.PageSize(i); err == nil {
			fmt.Printf("  page %d: %.1f x %.1f pt\n", i+1, w, h)
		}
	}
}

func mergeCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "merge <a.pdf> <b.pdf> [more.pdf...]",
		Short: "Concatenate documents into one file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := docops.Merge(args, output); err != nil {
				return err
			}
			fmt.Println("wrote", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "merged.pdf", "output file")
	return cmd
}

func splitCmd() *cobra.Command {
	var (
		output string
		pages  string
	)

	cmd := &cobra.Command{
		Use:   "split <file.pdf>",
		Short: "Extract a page range into a new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRange(pages)
			if err != nil {
				return err
			}
			if err := docops.Split(args[0], output, from, to); err != nil {
				return err
			}
			fmt.Println("wrote", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "split.pdf", "output file")
	cmd.Flags().StringVarP(&pages, "pages", "p", "", "1-based inclusive range, e.g. 2-5 or 3")
	cmd.MarkFlagRequired("pages")
	return cmd
}

// parseRange accepts "N" or "N-M".
func parseRange(s string) (from, to int, err error) {
	if i := strings.IndexByte(s, '-'); i >= 0 {
		from, err = strconv.Atoi(s[:i])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid page range %q", s)
		}
		to, err = strconv.Atoi(s[i+1:])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid page range %q", s)
		}
		return from, to, nil
	}
	from, err = strconv.Atoi(s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page range %q", s)
	}
	return from, from, nil
}

func rotateCmd() *cobra.Command {
	var (
		output  string
		degrees int
		pages   []int
	)

	cmd := &cobra.Command{
		Use:   "rotate <file.pdf>",
		Short: "Rotate pages by a multiple of 90 degrees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := docops.Rotate(args[0], output, degrees, pages...); err != nil {
				return err
			}
			fmt.Println("wrote", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "rotated.pdf", "output file")
	cmd.Flags().IntVarP(&degrees, "degrees", "r", 90, "rotation to add (multiple of 90)")
	cmd.Flags().IntSliceVarP(&pages, "pages", "p", nil, "1-based pages to rotate (default: all)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pdfcore %s\n", version)
		},
	}
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
