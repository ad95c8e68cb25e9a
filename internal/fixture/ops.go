package fixture

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"gettsimarchive/internal/logging"
	"gettsimarchive/internal/qname"
)

// DraftPrefix marks fixture files that are not yet properly formatted.
// Walk skips them.
const DraftPrefix = "skip_"

// Operation rewrites a fixture in place.
type Operation func(*Fixture) error

var sections = []string{SectionProvided, SectionAssumed, SectionOutputs}

// SortAlphabetically drops the recorded key order so every section is
// written in alphabetical order.
func SortAlphabetically(f *Fixture) error {
	for _, s := range sections {
		delete(f.Order, s)
	}
	return nil
}

// ToTree converts qualified names in all sections into nested trees.
func ToTree(f *Fixture) error {
	for _, s := range sections {
		tree, err := qname.Unflatten(qname.Flatten(f.Section(s)))
		if err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
		f.setSection(s, tree)
		delete(f.Order, s)
	}
	return nil
}

// RenameVariable returns an operation that renames the variable old to new
// in all sections. Sections are re-sorted and info text is reflowed with
// ProcessText.
func RenameVariable(old, new string) Operation {
	return func(f *Fixture) error {
		for _, s := range sections {
			flat := qname.Flatten(f.Section(s))
			qname.Rename(flat, old, new)
			tree, err := qname.Unflatten(flat)
			if err != nil {
				return fmt.Errorf("%s: %w", s, err)
			}
			f.setSection(s, tree)
			delete(f.Order, s)
		}
		f.Info.Note = ProcessText(f.Info.Note)
		f.Info.Source = ProcessText(f.Info.Source)
		for k, v := range f.Info.Extra {
			if s, ok := v.(string); ok {
				f.Info.Extra[k] = ProcessText(s)
			}
		}
		return nil
	}
}

// Chain runs operations in order.
func Chain(ops ...Operation) Operation {
	return func(f *Fixture) error {
		for _, op := range ops {
			if err := op(f); err != nil {
				return err
			}
		}
		return nil
	}
}

// Walk calls fn for every *.yaml file below root in lexical order,
// skipping drafts.
func Walk(root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}
		if strings.HasPrefix(d.Name(), DraftPrefix) {
			logging.Get(logging.CategoryFixture).Debugw("skipping draft fixture", "path", path)
			return nil
		}
		return fn(path)
	})
}

// RewriteOptions controls RewriteAll.
type RewriteOptions struct {
	// DryRun prints a line diff of each changed file to Out instead of
	// writing it.
	DryRun bool
	Out    io.Writer
	Save   SaveOptions
}

// RewriteAll applies op to every fixture below root and returns the number
// of files whose content changed.
func RewriteAll(root string, op Operation, opts RewriteOptions) (int, error) {
	log := logging.Get(logging.CategoryFixture)
	changed := 0
	err := Walk(root, func(path string) error {
		before, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read fixture: %w", err)
		}
		f, err := Parse(before)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := op(f); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		after, err := Marshal(f, opts.Save)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if bytes.Equal(before, after) {
			return nil
		}
		changed++
		if opts.DryRun {
			if opts.Out != nil {
				writeLineDiff(opts.Out, path, string(before), string(after))
			}
			return nil
		}
		if err := os.WriteFile(path, after, 0644); err != nil {
			return fmt.Errorf("failed to write fixture: %w", err)
		}
		log.Infow("rewrote fixture", "path", path)
		return nil
	})
	return changed, err
}

func writeLineDiff(w io.Writer, path, before, after string) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	fmt.Fprintf(w, "--- %s\n+++ %s\n", path, path)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffEqual:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, prefix+line)
			if !strings.HasSuffix(line, "\n") {
				fmt.Fprintln(w)
			}
		}
	}
}
