package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/records/pkg/record"
)

// ParseFile parses the schema documents in a YAML file.
func ParseFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	docs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range docs {
		docs[i].Source = path
	}
	return docs, nil
}

// Parse parses one or more schema documents from YAML bytes. Empty
// documents are skipped.
func Parse(data []byte) ([]Document, error) {
	var docs []Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		if doc.Name == "" && len(doc.Fields) == 0 && doc.Extends == "" {
			continue
		}
		if err := Validate(doc); err != nil {
			return nil, fmt.Errorf("validate schema %q: %w", doc.Name, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ParseDir parses all schema documents from a directory, including
// subdirectories.
func ParseDir(dir string) ([]Document, error) {
	var docs []Document

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseDir(path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, sub...)
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		fileDocs, err := ParseFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}

	return docs, nil
}

// Validate checks a document on its own. Checks that need other documents
// (extends) or the full field list (ordering, duplicates) happen in Build.
func Validate(doc Document) error {
	var errs []string

	if doc.Name == "" {
		errs = append(errs, "schema name is required")
	}
	if doc.Extends != "" && doc.Extends == doc.Name {
		errs = append(errs, "schema cannot extend itself")
	}
	if doc.Extends == "" && len(doc.Overrides) > 0 {
		errs = append(errs, "overrides require extends")
	}

	check := func(kind string, f FieldDoc) {
		if f.Name == "" {
			errs = append(errs, kind+" name is required")
			return
		}
		if f.Type != "" && !record.IsValidValueType(record.ValueType(f.Type)) {
			errs = append(errs, fmt.Sprintf("%s %q: unknown type %q", kind, f.Name, f.Type))
		}
		if f.Factory != "" {
			if _, ok := factories[f.Factory]; !ok {
				errs = append(errs, fmt.Sprintf("%s %q: unknown factory %q", kind, f.Name, f.Factory))
			}
		}
	}
	for _, f := range doc.Fields {
		check("field", f)
	}
	for _, f := range doc.Overrides {
		check("override", f)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidDocument, strings.Join(errs, "\n  - "))
	}
	return nil
}
