package report

import (
	"sort"

	"xreflint/internal/engine/lint"
)

// FileResult holds the outcome of linting one file. Err is set when the
// file could not be analyzed; Defects is then empty.
type FileResult struct {
	Path    string
	Defects []lint.Defect
	Err     error
}

type Summary struct {
	Files            int `json:"files"`
	FilesWithDefects int `json:"files_with_defects"`
	Failed           int `json:"failed"`
	Errors           int `json:"errors"`
	Warnings         int `json:"warnings"`
	Notices          int `json:"notices"`
}

// ExitCode is 1 when any error or warning was reported.
func (s Summary) ExitCode() int {
	if s.Errors+s.Warnings > 0 {
		return 1
	}
	return 0
}

type Result struct {
	Files   []FileResult
	Summary Summary
}

// NewResult orders files by path and tallies the summary.
func NewResult(files []FileResult) Result {
	out := append([]FileResult(nil), files...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	var s Summary
	var counts lint.Counts
	for _, f := range out {
		if f.Err != nil {
			s.Failed++
			continue
		}
		s.Files++
		if len(f.Defects) > 0 {
			s.FilesWithDefects++
		}
		counts.Add(f.Defects)
	}
	s.Errors, s.Warnings, s.Notices = counts.Errors, counts.Warnings, counts.Notices
	return Result{Files: out, Summary: s}
}
