package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zonewatch/docreport/cmd/docreport/ui"
	"github.com/zonewatch/docreport/internal/extract"
	"github.com/zonewatch/docreport/internal/layout"
	"github.com/zonewatch/docreport/internal/llm"
	"github.com/zonewatch/docreport/internal/observability"
	"github.com/zonewatch/docreport/internal/pipeline"
	"github.com/zonewatch/docreport/internal/render"
)

// A4 portrait page width; the layout engine works with the span between the
// margins.
const pageWidthMM = 210

var instruction string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate summary reports for every PDF in the input directory",
	Long: `Processes each PDF in the input directory in turn: extracts text and
embedded images, generates a report, and writes the result to the output
directory. Successfully processed sources are moved to the processed
directory; failed sources stay in place for the next run.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&instruction, "instruction", "i", "", "question or instruction shaping the report (empty for a general summary)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	files, err := filepath.Glob(filepath.Join(cfg.Dirs.Input, "*.pdf"))
	if err != nil {
		return fmt.Errorf("scan input directory: %w", err)
	}
	if len(files) == 0 {
		ui.Warning("no PDF files in %s", cfg.Dirs.Input)
		return nil
	}

	client := llm.NewClient(cfg.LLM, observability.Component(log, "llm"))
	extractor := extract.New(cfg.Extract, cfg.Dirs.Scratch, client, observability.Component(log, "extract"))
	engine := layout.New(cfg.Layout, pageWidthMM-2*cfg.Layout.PageMarginMM, observability.Component(log, "layout"))
	writer := render.NewWriter(cfg.Dirs.Output, cfg.Layout, observability.Component(log, "render"))
	pipe := pipeline.New(extractor, client, engine, writer, observability.Component(log, "pipeline"))

	ui.Section("Report Generation")
	ui.Info("%d document(s) in %s", len(files), cfg.Dirs.Input)

	ctx := context.Background()
	succeeded := 0
	for _, file := range files {
		name := filepath.Base(file)
		spin := ui.NewSpinner(fmt.Sprintf("Processing %s...", name))
		spin.Start()

		outPath, err := pipe.Run(ctx, file, instruction)
		spin.Stop()
		if err != nil {
			// The source stays in the input directory for a retry.
			ui.Error("%s: %v", name, err)
			continue
		}

		ui.Success("%s → %s", name, outPath)
		if err := moveFile(file, filepath.Join(cfg.Dirs.Processed, name)); err != nil {
			ui.Warning("could not archive %s: %v", name, err)
		}
		succeeded++
	}

	ui.Step("%d of %d document(s) processed", succeeded, len(files))
	if succeeded < len(files) {
		return fmt.Errorf("%d document(s) failed", len(files)-succeeded)
	}
	return nil
}

// moveFile renames src to dst, falling back to copy-and-remove when the
// rename crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
