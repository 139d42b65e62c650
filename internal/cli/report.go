package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/afero"

	"github.com/shv-ng/dir-diff/internal/dedup"
	"github.com/shv-ng/dir-diff/internal/diff"
	"github.com/shv-ng/dir-diff/internal/scan"
)

var (
	sideHeader  = color.New(color.FgCyan, color.Bold)
	tableHeader = color.New(color.FgGreen, color.Underline).SprintfFunc()
)

func printDiff(out io.Writer, dirA, dirB string, rep diff.Report) {
	if rep.Empty() {
		fmt.Fprintln(out, "No differences: every file's content exists on both sides.")
		return
	}
	if len(rep.UniqueA) > 0 {
		sideHeader.Fprintf(out, "Only in %s:\n", dirA)
		for _, p := range rep.UniqueA {
			fmt.Fprintln(out, " ", p)
		}
	}
	if len(rep.UniqueB) > 0 {
		sideHeader.Fprintf(out, "Only in %s:\n", dirB)
		for _, p := range rep.UniqueB {
			fmt.Fprintln(out, " ", p)
		}
	}
}

func printScanSummary(out io.Writer, results ...*scan.Result) {
	tbl := table.New("Root", "Files", "Hashed", "Errors").
		WithWriter(out).
		WithHeaderFormatter(tableHeader)
	for _, r := range results {
		tbl.AddRow(r.Tree.Root, r.Files, humanize.Bytes(r.Bytes), len(r.Errors))
	}
	tbl.Print()
}

func printDedup(out io.Writer, res *dedup.Result, dryRun bool) {
	fileVerb, dirVerb := "Deleted", "Removed empty directory"
	if dryRun {
		fileVerb, dirVerb = "Would delete", "Would remove empty directory"
	}
	for _, p := range res.Deleted {
		fmt.Fprintf(out, "%s %s\n", fileVerb, p)
	}
	for _, d := range res.RemovedDirs {
		fmt.Fprintf(out, "%s %s\n", dirVerb, d)
	}
	for _, f := range res.Failures {
		fmt.Fprintf(out, "Failed: %v\n", f)
	}
}

func printDedupSummary(out io.Writer, sc *scan.Result, res *dedup.Result, dryRun bool) {
	reclaimed := humanize.Bytes(res.Reclaimed)
	if dryRun {
		reclaimed += " (dry-run)"
	}
	tbl := table.New("Metric", "Value").
		WithWriter(out).
		WithHeaderFormatter(tableHeader)
	tbl.AddRow("Files scanned", sc.Files)
	tbl.AddRow("Bytes hashed", humanize.Bytes(sc.Bytes))
	tbl.AddRow("Duplicate groups", len(res.Survivors))
	tbl.AddRow("Files deleted", len(res.Deleted))
	tbl.AddRow("Directories removed", len(res.RemovedDirs))
	tbl.AddRow("Space reclaimed", reclaimed)
	tbl.AddRow("Failures", len(res.Failures))
	tbl.AddRow("Scan errors", len(sc.Errors))
	tbl.Print()
}

type reportFile struct {
	Path   string `json:"path"`
	Action string `json:"action"` // kept, deleted, dry-run
}

type reportGroup struct {
	Fingerprint string       `json:"fingerprint"`
	Files       []reportFile `json:"files"`
}

type runReport struct {
	ScannedAt      time.Time     `json:"scanned_at"`
	Root           string        `json:"root_path"`
	TotalFiles     int           `json:"total_files"`
	Groups         []reportGroup `json:"duplicate_groups"`
	RemovedDirs    []string      `json:"removed_directories"`
	ReclaimedBytes uint64        `json:"reclaimed_bytes"`
	Failures       []string      `json:"failures,omitempty"`
	ScanErrors     []string      `json:"scan_errors,omitempty"`
}

func writeReport(fsys afero.Fs, path, root string, sc *scan.Result, res *dedup.Result, dryRun bool) error {
	deleted := make(map[string]bool, len(res.Deleted))
	for _, p := range res.Deleted {
		deleted[p] = true
	}
	action := "deleted"
	if dryRun {
		action = "dry-run"
	}

	rep := runReport{
		ScannedAt:      time.Now(),
		Root:           root,
		TotalFiles:     sc.Files,
		RemovedDirs:    res.RemovedDirs,
		ReclaimedBytes: res.Reclaimed,
	}
	for _, fp := range sc.Index.Fingerprints() {
		group := sc.Index.Paths(fp)
		if len(group) < 2 {
			continue
		}
		g := reportGroup{Fingerprint: fp.String()}
		for _, p := range group {
			a := "kept"
			if deleted[p] {
				a = action
			}
			g.Files = append(g.Files, reportFile{Path: p, Action: a})
		}
		rep.Groups = append(rep.Groups, g)
	}
	for _, f := range res.Failures {
		rep.Failures = append(rep.Failures, f.Error())
	}
	for _, e := range sc.Errors {
		rep.ScanErrors = append(rep.ScanErrors, e.Error())
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
