// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

/*
Package wordlist loads subdomain candidate labels: one label per line, with
blank lines ignored. There is no comment syntax, and duplicate labels are kept
as they are.
*/
package wordlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineLength limits the length of a single wordlist line.
const maxLineLength = 1024 * 1024

// LoadError reports a wordlist that could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load wordlist %q: %s", e.Path, e.Err.Error())
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads all candidate labels from the wordlist file at the specified
// path.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()
	labels, err := Read(f)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return labels, nil
}

// Read reads all candidate labels from r.
func Read(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineLength)
	labels := []string{}
	for sc.Scan() {
		label := strings.TrimSpace(sc.Text())
		if label == "" {
			continue
		}
		labels = append(labels, label)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}
