package source

import (
	"fmt"

	"github.com/shinji-kodama/assetdeploy/internal/model"
)

// EntryError reports a failure below the top-level folder during Walk,
// attributed to the entry being expanded. Index is the number of entries
// Walk had produced when the failure occurred, so callers can replay it in
// listing order.
type EntryError struct {
	Name  string
	Index int
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %q: %v", e.Name, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Flat lists folder and returns one entry per name, in listing order.
// Names are passed through untouched: a name containing a separator is
// not split into directories.
func Flat(src Source, folder string) ([]model.AssetEntry, error) {
	names, err := src.List(folder)
	if err != nil {
		return nil, err
	}
	entries := make([]model.AssetEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, model.AssetEntry{Name: name, Path: join(folder, name)})
	}
	return entries, nil
}

// Walk expands folder into every file below it. Entries are returned in
// pre-order, keeping the container's listing order at each level; entry
// names are slash-separated paths relative to folder. Empty directories
// produce no entries.
//
// A directory that cannot be listed does not stop the walk: it is reported
// as an EntryError and its siblings are still expanded. The returned error
// is non-nil only when folder itself cannot be listed.
//
// The walk uses an explicit stack keyed by relative path. Child names are
// concatenated rather than path-joined so that a hostile name such as ".."
// survives intact and is rejected by name validation downstream.
func Walk(src Source, folder string) ([]model.AssetEntry, []*EntryError, error) {
	top, err := src.List(folder)
	if err != nil {
		return nil, nil, err
	}

	stack := make([]string, 0, len(top))
	for i := len(top) - 1; i >= 0; i-- {
		stack = append(stack, top[i])
	}

	var (
		entries []model.AssetEntry
		failed  []*EntryError
	)
	for len(stack) > 0 {
		rel := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		full := join(folder, rel)

		isDir, children, err := classify(src, full)
		if err != nil {
			failed = append(failed, &EntryError{Name: rel, Index: len(entries), Err: err})
			continue
		}
		if !isDir {
			entries = append(entries, model.AssetEntry{Name: rel, Path: full})
			continue
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, rel+"/"+children[i])
		}
	}
	return entries, failed, nil
}

// classify decides whether full is a directory and, if so, returns its
// children. A name the source cannot stat is treated as a file so the
// failure surfaces when the entry is opened.
func classify(src Source, full string) (bool, []string, error) {
	if dc, ok := src.(DirChecker); ok {
		isDir, err := dc.IsDir(full)
		if err != nil || !isDir {
			return false, nil, nil
		}
		children, err := src.List(full)
		if err != nil {
			return false, nil, err
		}
		return true, children, nil
	}

	// Without DirChecker, an asset manager lists files as empty folders.
	children, err := src.List(full)
	if err != nil || len(children) == 0 {
		return false, nil, nil
	}
	return true, children, nil
}

func join(folder, name string) string {
	if folder == "" || folder == "." {
		return name
	}
	return folder + "/" + name
}
