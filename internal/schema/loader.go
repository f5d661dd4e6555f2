package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Model files live at <dir>/<model>.yml. Tables carry the extraction options;
// columns are usually left out and filled from the database at export time.

type yamlModel struct {
	Name      string      `yaml:"name,omitempty"`
	ModelName string      `yaml:"model_name"`
	Tables    []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name      string       `yaml:"name"`
	Condition string       `yaml:"condition,omitempty"`
	Skip      *int64       `yaml:"skip,omitempty"`
	Take      *int64       `yaml:"take,omitempty"`
	Columns   []yamlColumn `yaml:"columns,omitempty"`
}

type yamlColumn struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type,omitempty"`
	Precision  int             `yaml:"precision,omitempty"`
	MaxLength  int             `yaml:"max_length,omitempty"`
	Order      int             `yaml:"order,omitempty"`
	PrimaryKey bool            `yaml:"primary_key,omitempty"`
	ForeignKey *yamlForeignKey `yaml:"foreign_key,omitempty"`
}

type yamlForeignKey struct {
	Column string `yaml:"column"`
	Table  string `yaml:"table"`
	Type   string `yaml:"type,omitempty"`
}

// ModelPath returns the file path of a named model.
func ModelPath(dir, modelName string) string {
	return filepath.Join(dir, modelName+".yml")
}

// LoadModel reads and validates a model file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	var ym yamlModel
	if err := yaml.Unmarshal(data, &ym); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	name := ym.ModelName
	if name == "" {
		name = ym.Name
	}
	if name == "" {
		return nil, fmt.Errorf("model file %s: model_name is required", path)
	}

	m := NewModel(name)
	for _, yt := range ym.Tables {
		t := NewTable(yt.Name)
		t.Predicate = yt.Condition
		t.Skip = yt.Skip
		t.Take = yt.Take
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("model file %s: %w", path, err)
		}

		cols := make([]*Column, 0, len(yt.Columns))
		for _, yc := range yt.Columns {
			c := &Column{
				Name:       yc.Name,
				TypeName:   yc.Type,
				Precision:  yc.Precision,
				MaxLength:  yc.MaxLength,
				Ordinal:    yc.Order,
				PrimaryKey: yc.PrimaryKey,
			}
			if yc.ForeignKey != nil {
				c.ForeignKey = &ForeignKey{
					ColumnName: yc.ForeignKey.Column,
					TableName:  yc.ForeignKey.Table,
					TypeName:   yc.ForeignKey.Type,
				}
			}
			cols = append(cols, c)
		}
		if len(cols) > 0 {
			t.AddColumns(cols)
		}

		if err := m.AddTable(t); err != nil {
			return nil, fmt.Errorf("model file %s: %w", path, err)
		}
	}
	return m, nil
}

// SaveModel writes m to path, creating the directory when needed. Columns are
// written only when withColumns is set.
func SaveModel(path string, m *Model, withColumns bool) error {
	ym := yamlModel{Name: m.Name, ModelName: m.Name}
	for _, t := range m.Tables() {
		yt := yamlTable{Name: t.Name, Condition: t.Predicate, Skip: t.Skip, Take: t.Take}
		if withColumns {
			for _, c := range t.Columns() {
				yc := yamlColumn{
					Name:       c.Name,
					Type:       c.TypeName,
					Precision:  c.Precision,
					MaxLength:  c.MaxLength,
					Order:      c.Ordinal,
					PrimaryKey: c.PrimaryKey,
				}
				if c.ForeignKey != nil {
					yc.ForeignKey = &yamlForeignKey{
						Column: c.ForeignKey.ColumnName,
						Table:  c.ForeignKey.TableName,
						Type:   c.ForeignKey.TypeName,
					}
				}
				yt.Columns = append(yt.Columns, yc)
			}
		}
		ym.Tables = append(ym.Tables, yt)
	}

	data, err := yaml.Marshal(&ym)
	if err != nil {
		return fmt.Errorf("marshalling YAML: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing model file: %w", err)
	}
	return nil
}
