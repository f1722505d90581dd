package rules

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxRuleFileSize = 1024 * 1024 // 1MB

// LoadFile loads one program rule set from a YAML file, layered over
// the built-in defaults for that program when they exist. The program
// ID is the file name without extension unless the file sets one.
func LoadFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat rule file: %w", err)
	}
	if info.Size() > maxRuleFileSize {
		return nil, fmt.Errorf("rule file %s exceeds %d bytes", path, maxRuleFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	program := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(program, content)
}

// Parse builds a rule set for program from raw YAML, layered over the
// program's built-in defaults when present.
func Parse(program string, content []byte) (*RuleSet, error) {
	rs := &RuleSet{Program: program}
	if def, ok := builtinDefaults()[program]; ok {
		rs = def
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse rules for program %q: %w", program, err)
	}
	if err := k.Unmarshal("", rs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules for program %q: %w", program, err)
	}
	if rs.Program == "" {
		rs.Program = program
	}

	normalizeAdjacency(rs)
	return rs, nil
}

// LoadDir builds a catalog from every *.yaml/*.yml file in dir, plus
// built-in defaults for programs with no file present.
func LoadDir(dir string) (*Catalog, error) {
	programs := builtinDefaults()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		rs, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		programs[rs.Program] = rs
	}

	sets := make([]*RuleSet, 0, len(programs))
	for _, rs := range programs {
		sets = append(sets, rs)
	}
	return NewCatalog(sets...), nil
}

// normalizeAdjacency makes the panel adjacency map symmetric so checks
// never depend on which side of a pair the config listed.
func normalizeAdjacency(rs *RuleSet) {
	adj := rs.Refinish.Adjacency
	if adj == nil {
		return
	}
	for panel, neighbors := range adj {
		for _, n := range neighbors {
			if !rs.Refinish.Adjacent(n, panel) {
				adj[n] = append(adj[n], panel)
			}
		}
	}
}
