// Package toolkit is the outer API surface: document comparison with
// visual annotation, and template-driven document generation. It wires
// the extractor, diff engine, layout engine, OCR fallback and writers
// together behind two operations, Compare and Generate.
package toolkit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/documint/pdfcore/builder"
	"github.com/documint/pdfcore/diff"
	"github.com/documint/pdfcore/observability"
	"github.com/documint/pdfcore/ocr"
	"github.com/documint/pdfcore/template"
	"github.com/documint/pdfcore/writer"
)

// Toolkit carries the shared configuration of the outer operations.
type Toolkit struct {
	outputDir    string
	log          observability.Logger
	ocrEngine    ocr.Engine
	ocrLanguages []string
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithOutputDir sets where Compare and Generate place their output
// files. Defaults to the system temp directory.
func WithOutputDir(dir string) Option {
	return func(t *Toolkit) { t.outputDir = dir }
}

// WithLogger routes diagnostics to log.
func WithLogger(log observability.Logger) Option {
	return func(t *Toolkit) { t.log = log }
}

// WithOCREngine enables the scanned-page fallback: pages without
// extractable glyphs are recognized through engine during comparison.
func WithOCREngine(engine ocr.Engine, languages ...string) Option {
	return func(t *Toolkit) {
		t.ocrEngine = engine
		t.ocrLanguages = languages
	}
}

// New creates a Toolkit.
func New(opts ...Option) *Toolkit {
	t := &Toolkit{
		outputDir: os.TempDir(),
		log:       observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CompareOptions control comparison annotation. Zero-value color fields
// fall back to the default palette.
type CompareOptions struct {
	AddedColor     string // #RRGGBB
	DeletedColor   string
	ChangedColor   string
	Opacity        float64
	AnnotateSource bool
	AnnotateTarget bool
}

// CompareResult reports where the annotated copies were written and the
// per-page and total difference counts.
type CompareResult struct {
	SourcePath string
	TargetPath string
	Pages      []diff.PageSummary
	Totals     diff.Totals
}

// Compare diffs two PDF files word by word. When annotation is
// requested, highlighted copies are written to the output directory
// under random names. Any per-page failure aborts the whole comparison.
func (t *Toolkit) Compare(ctx context.Context, sourcePath, targetPath string, opts CompareOptions) (*CompareResult, error) {
	source, err := t.openDocument(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	target, err := t.openDocument(ctx, targetPath)
	if err != nil {
		return nil, err
	}

	dOpts := diff.DefaultOptions()
	if opts.AddedColor != "" {
		dOpts.AddedColor = opts.AddedColor
	}
	if opts.DeletedColor != "" {
		dOpts.DeletedColor = opts.DeletedColor
	}
	if opts.ChangedColor != "" {
		dOpts.ChangedColor = opts.ChangedColor
	}
	if opts.Opacity > 0 {
		dOpts.Opacity = opts.Opacity
	}
	dOpts.AnnotateSource = opts.AnnotateSource
	dOpts.AnnotateTarget = opts.AnnotateTarget
	dOpts.Logger = t.log
	if opts.AnnotateSource {
		dOpts.SourcePath = t.randomOutputPath("compare-source")
	}
	if opts.AnnotateTarget {
		dOpts.TargetPath = t.randomOutputPath("compare-target")
	}

	res, err := diff.Compare(source, target, dOpts)
	if err != nil {
		return nil, err
	}
	return &CompareResult{
		SourcePath: res.SourcePath,
		TargetPath: res.TargetPath,
		Pages:      res.Pages,
		Totals:     res.Totals,
	}, nil
}

// GenerateResult reports the written file and its basic properties.
type GenerateResult struct {
	OutputPath    string
	PageCount     int
	FileSizeBytes int64
}

// Generate renders a template definition against a data tree and writes
// the document. An empty fileName gets a random one.
func (t *Toolkit) Generate(ctx context.Context, def *template.Definition, data map[string]interface{}, fileName string) (*GenerateResult, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil template definition", ErrInvalidInput)
	}
	b := builder.NewBuilder()
	eng := template.NewEngine(b, template.WithLogger(t.log))
	doc, err := eng.Generate(ctx, def, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	outPath := t.randomOutputPath("generated")
	if fileName != "" {
		outPath = filepath.Join(t.outputDir, fileName)
	}
	if err := writer.WriteFile(doc, outPath, writer.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOutputWriteFailure, outPath, err)
	}
	stat, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputWriteFailure, err)
	}
	t.log.Info("document generated",
		observability.String("path", outPath),
		observability.Int("pages", len(doc.Pages)))
	return &GenerateResult{
		OutputPath:    outPath,
		PageCount:     len(doc.Pages),
		FileSizeBytes: stat.Size(),
	}, nil
}

// GenerateFromBytes parses a serialized definition (JSON or YAML) and a
// JSON data tree, then renders them.
func (t *Toolkit) GenerateFromBytes(ctx context.Context, defData, dataJSON []byte, fileName string) (*GenerateResult, error) {
	def, err := template.ParseDefinition(defData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	data := map[string]interface{}{}
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &data); err != nil {
			return nil, fmt.Errorf("%w: parse data JSON: %v", ErrInvalidInput, err)
		}
	}
	return t.Generate(ctx, def, data, fileName)
}

// randomOutputPath returns a fresh path in the output directory.
func (t *Toolkit) randomOutputPath(prefix string) string {
	var buf [8]byte
	rand.Read(buf[:])
	return filepath.Join(t.outputDir, fmt.Sprintf("%s-%s.pdf", prefix, hex.EncodeToString(buf[:])))
}
