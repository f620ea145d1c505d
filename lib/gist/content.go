package gist

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is used for inline content created without an explicit name.
const DefaultFileName = "untitled.txt"

type contentKind int

const (
	contentInline contentKind = iota
	contentFile
	contentFileList
)

// Content is the payload for Create and Update: inline text, a single file
// path, or a list of file paths. Use Text, File or Files to construct it, the
// kind is fixed at construction and dispatched once during resolution.
type Content struct {
	kind  contentKind
	text  string
	paths []string
}

// Text makes inline content.
func Text(s string) Content { return Content{kind: contentInline, text: s} }

// File makes content read from a single file on disk.
func File(path string) Content { return Content{kind: contentFile, paths: []string{path}} }

// Files makes content read from multiple files on disk.
func Files(paths ...string) Content { return Content{kind: contentFileList, paths: paths} }

func (c Content) isList() bool { return c.kind == contentFileList }

// fileContent is the wire shape of a single gist file.
type fileContent struct {
	Content string `json:"content"`
}

// resolve builds the files mapping for the create payload. Inline text lands
// under defaultName, paths are read from disk keyed by base name with trimmed
// text. Missing paths are skipped, but resolving to nothing at all is an error.
func (c Content) resolve(defaultName string) (map[string]fileContent, error) {
	if c.kind == contentInline {
		name := defaultName
		if name == "" {
			name = DefaultFileName
		}
		return map[string]fileContent{name: {Content: c.text}}, nil
	}

	files := map[string]fileContent{}
	for _, p := range c.paths {
		data, err := os.ReadFile(p) //nolint:gosec // paths are the caller's own files
		if err != nil {
			continue
		}
		files[filepath.Base(p)] = fileContent{Content: strings.TrimSpace(string(data))}
	}
	if len(files) == 0 {
		return nil, errf(KindNotFound, nil, "unable to locate the file(s): %s", strings.Join(c.paths, ", "))
	}
	return files, nil
}

// single resolves content destined for one already-named gist file: inline
// text as-is, a file path read and trimmed. Used by Update, where the target
// file name comes from the gist, not from the local path.
func (c Content) single() (string, error) {
	if c.kind == contentInline {
		return c.text, nil
	}
	data, err := os.ReadFile(c.paths[0]) //nolint:gosec // path is the caller's own file
	if err != nil {
		return "", errf(KindNotFound, err, "unable to locate the file %s", c.paths[0])
	}
	return strings.TrimSpace(string(data)), nil
}
