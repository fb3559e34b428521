package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rezonia/invoice-validator/internal/processor"
	"github.com/rezonia/invoice-validator/internal/report"
)

// collectFiles expands globs and walks directories, keeping files whose
// extension is in exts
func collectFiles(args []string, exts ...string) ([]string, error) {
	var files []string
	seen := map[string]bool{}
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", match)
			}
			if !info.IsDir() {
				add(match)
				continue
			}
			err = filepath.WalkDir(match, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && hasExt(path, exts) {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// writeReport renders rep to --output or stdout
func writeReport(rep *report.Report) error {
	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == report.FormatXLSX && outputFile == "" {
		return fmt.Errorf("xlsx output requires --output")
	}

	writer := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	return report.Write(writer, rep, format)
}

// reportError turns a failed run into the command error
func reportError(rep *report.Report) error {
	if rep.OK() {
		return nil
	}
	return fmt.Errorf("validation failed for %d of %d files (%d failed, %d unreadable)",
		rep.Summary.Total-rep.Summary.Passed, rep.Summary.Total, rep.Summary.Failed, rep.Summary.Errored)
}

// saveExtraction writes the extraction result next to the others in dir,
// named after the source file
func saveExtraction(dir, source string, result *processor.Result) error {
	data, err := json.MarshalIndent(result.Extraction, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode extraction: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + ".json"
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}
	return nil
}
