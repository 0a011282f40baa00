// Package schema reads the declarative table descriptor and turns it into
// the CREATE TABLE statements that initialize the store. Every table's
// effective columns are the "common" fields followed by its own.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var defaultSchemaYAML []byte

// CommonTable names the descriptor entry injected into every table.
const CommonTable = "common"

// Type is the declared storage type of a field.
type Type string

// Supported field types.
const (
	TypeText      Type = "TEXT"
	TypeInteger   Type = "INTEGER"
	TypeTimestamp Type = "TIMESTAMP"
	TypeReal      Type = "REAL"
	TypeDecimal   Type = "DECIMAL(10,2)"
)

var validTypes = map[Type]bool{
	TypeText:      true,
	TypeInteger:   true,
	TypeTimestamp: true,
	TypeReal:      true,
	TypeDecimal:   true,
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// uniqueAttr matches the UNIQUE keyword as a whole word.
var uniqueAttr = regexp.MustCompile(`(?i)\bUNIQUE\b`)

// Field describes one column.
type Field struct {
	Name     string `yaml:"name"`
	Type     Type   `yaml:"type"`
	Required bool   `yaml:"required"`
	Attrs    string `yaml:"attrs"`
}

// Unique reports whether the column carries a UNIQUE constraint.
func (f Field) Unique() bool {
	return uniqueAttr.MatchString(f.Attrs)
}

// Column renders the column definition used inside CREATE TABLE.
func (f Field) Column() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte(' ')
	b.WriteString(string(f.Type))
	if f.Required {
		b.WriteString(" NOT NULL")
	}
	if attrs := strings.TrimSpace(f.Attrs); attrs != "" {
		b.WriteByte(' ')
		b.WriteString(attrs)
	}
	return b.String()
}

// Table is one descriptor entry. After Parse, Fields of a concrete table
// holds the resolved list: common fields first, then its own.
type Table struct {
	Name   string  `yaml:"name"`
	Fields []Field `yaml:"fields"`
}

// Field returns the named field of the table.
func (t Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CreateStatement renders CREATE TABLE IF NOT EXISTS for the table.
func (t Table) CreateStatement() string {
	cols := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		cols[i] = f.Column()
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", t.Name, strings.Join(cols, ", "))
}

// Schema is a parsed, validated descriptor.
type Schema struct {
	common []Field
	tables []Table
	index  map[string]int
}

// Default returns the schema embedded in the binary.
func Default() *Schema {
	s, err := Parse(defaultSchemaYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded schema: %v", err))
	}
	return s
}

// Load reads and parses a descriptor file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML descriptor, validates it and resolves each table's
// effective fields.
func Parse(data []byte) (*Schema, error) {
	var raw []Table
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}

	s := &Schema{index: make(map[string]int)}
	for _, t := range raw {
		if t.Name == CommonTable {
			if err := validateFields(t.Name, t.Fields); err != nil {
				return nil, err
			}
			s.common = append(s.common, t.Fields...)
		}
	}

	for _, t := range raw {
		if t.Name == CommonTable {
			continue
		}
		if !identifier.MatchString(t.Name) {
			return nil, fmt.Errorf("invalid table name %q", t.Name)
		}
		if _, dup := s.index[t.Name]; dup {
			return nil, fmt.Errorf("duplicate table %q", t.Name)
		}
		resolved := make([]Field, 0, len(s.common)+len(t.Fields))
		resolved = append(resolved, s.common...)
		resolved = append(resolved, t.Fields...)
		if err := validateFields(t.Name, resolved); err != nil {
			return nil, err
		}
		s.index[t.Name] = len(s.tables)
		s.tables = append(s.tables, Table{Name: t.Name, Fields: resolved})
	}
	return s, nil
}

func validateFields(table string, fields []Field) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !identifier.MatchString(f.Name) {
			return fmt.Errorf("table %s: invalid field name %q", table, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("table %s: duplicate field %q", table, f.Name)
		}
		seen[f.Name] = true
		if !validTypes[f.Type] {
			return fmt.Errorf("table %s: field %s: unsupported type %q", table, f.Name, f.Type)
		}
	}
	return nil
}

// Common returns the fields injected into every table.
func (s *Schema) Common() []Field {
	return append([]Field(nil), s.common...)
}

// Tables returns the concrete tables in declaration order.
func (s *Schema) Tables() []Table {
	return append([]Table(nil), s.tables...)
}

// Table returns the named concrete table.
func (s *Schema) Table(name string) (Table, bool) {
	i, ok := s.index[name]
	if !ok {
		return Table{}, false
	}
	return s.tables[i], true
}

// Fields returns the resolved fields of the named table.
func (s *Schema) Fields(name string) ([]Field, bool) {
	t, ok := s.Table(name)
	if !ok {
		return nil, false
	}
	return append([]Field(nil), t.Fields...), true
}

// Statements returns one CREATE TABLE IF NOT EXISTS per concrete table.
func (s *Schema) Statements() []string {
	stmts := make([]string, len(s.tables))
	for i, t := range s.tables {
		stmts[i] = t.CreateStatement()
	}
	return stmts
}

// DDL concatenates Statements for a single execution.
func (s *Schema) DDL() string {
	return strings.Join(s.Statements(), "\n")
}
