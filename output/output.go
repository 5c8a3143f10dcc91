// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

/*
Package output saves the live subdomains found by a scan. The default text
format lists exactly the live names, one per line; the other formats
additionally carry the resolved addresses.
*/
package output

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/siemens/subdig/types"

	"gopkg.in/yaml.v3"
)

// Format of saved results.
type Format string

// The supported result formats.
const (
	Text Format = "text"
	JSON Format = "json"
	CSV  Format = "csv"
	YAML Format = "yaml"
)

// Formats lists all supported formats.
var Formats = []Format{Text, JSON, CSV, YAML}

// ParseFormat returns the Format with the specified (case-insensitive) name.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return Text, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// WriteError reports results that could not be saved.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot save results to %q: %s", e.Path, e.Err.Error())
}

func (e *WriteError) Unwrap() error { return e.Err }

// Save the live subdomains of the specified result into the file at path,
// creating or truncating the file.
func Save(path string, format Format, result *types.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &WriteError{Path: path, Err: cerr}
		}
	}()
	if err := Write(f, format, result); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// Write the live subdomains of the specified result to w.
func Write(w io.Writer, format Format, result *types.Result) error {
	switch format {
	case Text, "":
		return writeText(w, result)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case CSV:
		return writeCSV(w, result)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

func writeText(w io.Writer, result *types.Result) error {
	bw := bufio.NewWriter(w)
	for _, o := range result.Live {
		if _, err := bw.WriteString(o.FQDN + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeCSV(w io.Writer, result *types.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"subdomain", "address"}); err != nil {
		return err
	}
	for _, o := range result.Live {
		if err := cw.Write([]string{o.FQDN, o.Address}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
