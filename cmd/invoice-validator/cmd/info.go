package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-validator/internal/model"
	"github.com/rezonia/invoice-validator/internal/parser/xml"
	"github.com/rezonia/invoice-validator/internal/processor"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Show how input files would be read",
	Long: `Display information about input files without validating them.

Shows:
  - Detected input format (JSON, XML)
  - Detected XML dialect (generic, UBL)
  - Header fields and line count after loading

Examples:
  invoice-validator info extraction.json
  invoice-validator info invoices/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, ".json", ".xml")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	registry := xml.NewRegistry()
	pipeline := processor.NewPipeline(
		processor.WithXMLRegistry(registry),
		processor.WithLogger(newLogger()),
	)

	fmt.Printf("Tolerance: %d cents\n", cfg.Validation.ToleranceCents)
	fmt.Printf("Required:  %s\n", strings.Join(cfg.Validation.RequiredFields, ", "))
	fmt.Printf("Dialects:  %s\n\n", strings.Join(registry.Names(), ", "))

	for _, file := range files {
		printFileInfo(cmd, pipeline, registry, file)
		fmt.Println()
	}
	return nil
}

func printFileInfo(cmd *cobra.Command, pipeline *processor.Pipeline, registry *xml.Registry, path string) {
	fmt.Printf("File: %s\n", path)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}
	fmt.Printf("  Size:    %d bytes\n", len(data))

	format := processor.DetectFormat(data)
	fmt.Printf("  Format:  %s\n", format)
	if format == processor.FormatXML {
		if a, err := registry.Detect(data); err == nil {
			fmt.Printf("  Dialect: %s\n", a.Name())
		} else {
			fmt.Printf("  Dialect: unknown\n")
		}
	}

	result, _, err := pipeline.Load(cmd.Context(), data)
	if err != nil {
		fmt.Printf("  Error:   %v\n", err)
		return
	}

	for _, field := range []string{model.FieldVendorName, model.FieldInvoiceNumber, model.FieldInvoiceDate, model.FieldTotalAmount} {
		if v, ok := result.Header[field]; ok && v != nil {
			fmt.Printf("  %-15s %v\n", field+":", v)
		}
	}
	fmt.Printf("  Lines:   %d\n", len(result.Lines))
}
