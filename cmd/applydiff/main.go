// Command applydiff is a CLI front end for the patch engine: preview or
// apply a patch document against a project tree, or run the engine's
// self-test fixtures.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agilira/orpheus/pkg/orpheus"

	"github.com/agilira/applydiff/pkg/applydiff"
)

func main() {
	app := orpheus.New("applydiff").
		SetDescription("Apply AI-generated search-and-replace patches to a project tree").
		SetVersion("1.0.0")

	app.AddGlobalBoolFlag("json", "j", false, "Emit the report as JSON instead of a summary")

	app.AddCommand(previewCommand())
	app.AddCommand(applyCommand())
	app.AddCommand(selfTestCommand())

	if err := app.Run(os.Args[1:]); err != nil {
		if orpheusErr, ok := err.(*orpheus.OrpheusError); ok {
			fmt.Fprintf(os.Stderr, "Error: %s\n", orpheusErr.Error())
			os.Exit(orpheusErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}

func previewCommand() *orpheus.Command {
	return orpheus.NewCommand("preview", "Show what a patch would do, without writing anything").
		SetHandler(runPreview).
		AddFlag("root", "r", ".", "Project root").
		AddFlag("patch", "p", "", "Path to the patch document (- for stdin)").
		AddExample("applydiff preview --root ./myproject --patch change.patch")
}

func applyCommand() *orpheus.Command {
	return orpheus.NewCommand("apply", "Apply a patch document to a project tree").
		SetHandler(runApply).
		AddFlag("root", "r", ".", "Project root").
		AddFlag("patch", "p", "", "Path to the patch document (- for stdin)").
		AddExample("applydiff apply --root ./myproject --patch change.patch")
}

func selfTestCommand() *orpheus.Command {
	return orpheus.NewCommand("self-test", "Run the engine against a directory of fixtures").
		SetHandler(runSelfTest).
		AddFlag("fixtures", "f", "./fixtures", "Fixture directory").
		AddExample("applydiff self-test --fixtures ./testdata/fixtures")
}

func runPreview(ctx *orpheus.Context) error {
	root := ctx.GetFlagString("root")
	patch, err := readPatch(ctx.GetFlagString("patch"))
	if err != nil {
		return orpheus.ExecutionError("preview", err.Error())
	}
	report, err := applydiff.Preview(root, patch)
	return emitReport(ctx, root, "preview", report, err)
}

func runApply(ctx *orpheus.Context) error {
	root := ctx.GetFlagString("root")
	patch, err := readPatch(ctx.GetFlagString("patch"))
	if err != nil {
		return orpheus.ExecutionError("apply", err.Error())
	}
	report, err := applydiff.Apply(root, patch)
	return emitReport(ctx, root, "apply", report, err)
}

func runSelfTest(ctx *orpheus.Context) error {
	report, err := applydiff.SelfTest(ctx.GetFlagString("fixtures"))
	if err != nil {
		return orpheus.ExecutionError("self-test", err.Error())
	}

	if ctx.GetGlobalFlagBool("json") {
		return printJSON(report)
	}

	fmt.Printf("%d/%d fixtures passed\n", report.Passed, report.Total)
	for _, r := range report.Results {
		status := "ok"
		if !r.Passed {
			status = "FAIL: " + r.Detail
		}
		fmt.Printf("  %s: %s\n", r.Name, status)
	}
	if report.Failed > 0 {
		return orpheus.ExecutionError("self-test", fmt.Sprintf("%d fixture(s) failed", report.Failed))
	}
	return nil
}

func emitReport(ctx *orpheus.Context, root, cmd string, report *applydiff.Report, err error) error {
	if err != nil {
		return orpheus.ExecutionError(cmd, err.Error())
	}

	if ctx.GetGlobalFlagBool("json") {
		return printJSON(report)
	}

	fmt.Printf("ok=%d fail=%d\n", report.OK, report.Fail)
	for _, o := range report.Outcomes {
		fmt.Printf("  [%d] %s: %s (%s)\n", o.Index, o.File, o.Status, o.Detail)
		if suggestion := suggestionFor(root, o); suggestion != "" {
			fmt.Printf("      did you mean %s?\n", suggestion)
		}
	}
	if report.BackupDir != "" {
		fmt.Printf("backup: %s\n", report.BackupDir)
	}
	if report.Diff != "" {
		fmt.Print(report.Diff)
	}
	return nil
}

// suggestionFor returns a "did you mean" hint for outcomes whose failure
// plausibly stems from a mistyped path, or "" if none applies.
func suggestionFor(root string, o applydiff.Outcome) string {
	switch o.Status {
	case "Skipped-NoMatch", "Skipped-IOError", "Skipped-PathEscape":
	default:
		return ""
	}
	if _, err := os.Stat(filepath.Join(root, o.File)); err == nil {
		return ""
	}
	suggestion := suggestPath(root, o.File)
	if suggestion == "" || suggestion == o.File {
		return ""
	}
	return suggestion
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readPatch(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("--patch is required")
	}
	if path == "-" {
		return readAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func readAll(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err == nil && info.Size() > 0 {
		buf := make([]byte, info.Size())
		n, readErr := f.Read(buf)
		if readErr != nil && n == 0 {
			return nil, readErr
		}
		return buf[:n], nil
	}

	var out []byte
	chunk := make([]byte, 64*1024)
	for {
		n, readErr := f.Read(chunk)
		out = append(out, chunk[:n]...)
		if readErr != nil {
			break
		}
	}
	return out, nil
}
