// Package kconfig resolves and mutates the kernel build configuration:
// tiered defconfig base selection, deterministic feature enablement, and
// normalization through the kernel's own config machinery.
package kconfig

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/nhkbuild/nhkbuild/src/common/logs"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the kconfig package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Document is a flat kernel configuration: CONFIG_* keys mapped to
// "y", "m", "n" (is-not-set), or a string/numeric value.
type Document struct {
	options map[string]string
}

// NewDocument creates an empty configuration document
func NewDocument() *Document {
	return &Document{options: make(map[string]string)}
}

var (
	setRegex   = regexp.MustCompile(`^(CONFIG_[A-Za-z0-9_]+)=(.*)$`)
	unsetRegex = regexp.MustCompile(`^# (CONFIG_[A-Za-z0-9_]+) is not set$`)
)

// ParseFile parses a kernel .config file into a Document
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	doc := NewDocument()
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if matches := setRegex.FindStringSubmatch(line); matches != nil {
			key := matches[1]
			value := matches[2]
			if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
				value = value[1 : len(value)-1]
			}
			doc.options[key] = value
		} else if matches := unsetRegex.FindStringSubmatch(line); matches != nil {
			doc.options[matches[1]] = "n"
		}
	}

	return doc, scanner.Err()
}

// Get returns the value for a key and whether it is present
func (d *Document) Get(key string) (string, bool) {
	v, ok := d.options[key]
	return v, ok
}

// Enabled reports whether a key is set to y or m
func (d *Document) Enabled(key string) bool {
	v := d.options[key]
	return v == "y" || v == "m"
}

// Enable sets a key to y. Enabling an already-enabled key is a no-op,
// which makes the pipeline's fixed enable list idempotent.
func (d *Document) Enable(key string) {
	if !strings.HasPrefix(key, "CONFIG_") {
		key = "CONFIG_" + key
	}
	if d.options[key] == "y" {
		return
	}
	d.options[key] = "y"
}

// Len returns the number of options in the document
func (d *Document) Len() int {
	return len(d.options)
}

// Render serializes the document in the kernel's .config syntax with
// keys sorted for deterministic output.
func (d *Document) Render() string {
	keys := make([]string, 0, len(d.options))
	for k := range d.options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var content strings.Builder
	for _, key := range keys {
		value := d.options[key]
		switch value {
		case "y", "m":
			fmt.Fprintf(&content, "%s=%s\n", key, value)
		case "n":
			fmt.Fprintf(&content, "# %s is not set\n", key)
		default:
			if isBareValue(value) {
				fmt.Fprintf(&content, "%s=%s\n", key, value)
			} else {
				fmt.Fprintf(&content, "%s=%q\n", key, value)
			}
		}
	}
	return content.String()
}

// WriteFile persists the document to path
func (d *Document) WriteFile(path string) error {
	return os.WriteFile(path, []byte(d.Render()), 0644)
}

// isBareValue reports whether a value is written without quoting
// (numeric and hex literals)
func isBareValue(v string) bool {
	if v == "" {
		return false
	}
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "-") {
		return true
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
