package suite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/conduitedeprojet/testrunner/internal/sandbox"
	"github.com/conduitedeprojet/testrunner/internal/shared/utils"
)

// ErrUnknownFormat is returned for files that are neither TOML nor YAML
var ErrUnknownFormat = errors.New("unknown suite format")

// Suite is a named list of cases
type Suite struct {
	Name  string `toml:"name" yaml:"name"`
	Cases []Case `toml:"case" yaml:"cases"`

	// Path is the file the suite was loaded from
	Path string `toml:"-" yaml:"-"`
}

// Case is one program/tests pair and its expected result
type Case struct {
	Name      string      `toml:"name" yaml:"name"`
	Code      string      `toml:"code" yaml:"code"`
	CodeFile  string      `toml:"code_file" yaml:"code_file"`
	Tests     string      `toml:"tests" yaml:"tests"`
	TestsFile string      `toml:"tests_file" yaml:"tests_file"`
	Expect    Expectation `toml:"expect" yaml:"expect"`
}

// Expectation constrains a result. Unset fields are not checked.
type Expectation struct {
	Success *bool  `toml:"success" yaml:"success"`
	Tests   *int   `toml:"tests" yaml:"tests"`
	Passed  *int   `toml:"passed" yaml:"passed"`
	Failed  *int   `toml:"failed" yaml:"failed"`
	Output  string `toml:"output" yaml:"output"`
	Error   string `toml:"error" yaml:"error"`
}

// Load reads a suite file and resolves the files its cases reference
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Suite
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	s.Path = path
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	dir := filepath.Dir(path)
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.Name == "" {
			c.Name = fmt.Sprintf("case %d", i+1)
		}
		if c.CodeFile != "" {
			if c.Code, err = ReadSource(resolve(dir, c.CodeFile)); err != nil {
				return nil, fmt.Errorf("%s: %s: %w", path, c.Name, err)
			}
		}
		if c.TestsFile != "" {
			if c.Tests, err = ReadSource(resolve(dir, c.TestsFile)); err != nil {
				return nil, fmt.Errorf("%s: %s: %w", path, c.Name, err)
			}
		}
	}
	return &s, nil
}

// Request returns the run request of the case
func (c Case) Request() sandbox.Request {
	return sandbox.Request{Code: c.Code, Tests: c.Tests}
}

// Files returns the source files the suite depends on, itself included
func (s *Suite) Files() []string {
	files := []string{s.Path}
	dir := filepath.Dir(s.Path)
	for _, c := range s.Cases {
		if c.CodeFile != "" {
			files = append(files, resolve(dir, c.CodeFile))
		}
		if c.TestsFile != "" {
			files = append(files, resolve(dir, c.TestsFile))
		}
	}
	return files
}

// ReadSource reads a program or tests file as UTF-8 text
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return utils.DecodeText(data)
}

// Discover expands glob patterns (** allowed) into a sorted list of suite files
func Discover(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			switch strings.ToLower(filepath.Ext(m)) {
			case ".toml", ".yaml", ".yml":
			default:
				continue
			}
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
