// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package permission maps role labels to the console modules they may open.

The mapping is data: an embedded YAML document (roles.yaml) parsed once into
a [Table]. Role checks for routes live in the guard package; this table only
decides which modules a session sees.
*/
package permission

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/taibuivan/foundation-console/internal/platform/sec"
)

//go:embed roles.yaml
var defaultDocument []byte

// document is the YAML shape of a permission table.
type document struct {
	Modules []string            `yaml:"modules"`
	Roles   map[string][]string `yaml:"roles"`
}

// Table is an immutable role → module lookup.
type Table struct {
	modules []string
	grants  map[string]map[string]struct{}
}

// Parse builds a [Table] from a YAML document. Every granted module must be
// declared in the modules list.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("permission: parse table: %w", err)
	}

	if len(doc.Modules) == 0 {
		return nil, fmt.Errorf("permission: table declares no modules")
	}

	declared := make(map[string]struct{}, len(doc.Modules))
	for _, module := range doc.Modules {
		if _, dup := declared[module]; dup {
			return nil, fmt.Errorf("permission: module %q declared twice", module)
		}
		declared[module] = struct{}{}
	}

	table := &Table{
		modules: slices.Clone(doc.Modules),
		grants:  make(map[string]map[string]struct{}, len(doc.Roles)),
	}
	for role, modules := range doc.Roles {
		set := make(map[string]struct{}, len(modules))
		for _, module := range modules {
			if _, ok := declared[module]; !ok {
				return nil, fmt.Errorf("permission: role %q grants undeclared module %q", role, module)
			}
			set[module] = struct{}{}
		}
		table.grants[role] = set
	}
	return table, nil
}

var defaultTable = sync.OnceValue(func() *Table {
	table, err := Parse(defaultDocument)
	if err != nil {
		panic(err)
	}
	return table
})

// Default returns the table embedded in the binary.
func Default() *Table {
	return defaultTable()
}

// All returns every declared module in declaration order.
func (table *Table) All() []string {
	return slices.Clone(table.modules)
}

// Modules returns the union of modules visible to roles, in declaration order.
func (table *Table) Modules(roles []string) []string {
	if slices.Contains(roles, sec.RoleSuperAdmin) {
		return table.All()
	}

	visible := make([]string, 0, len(table.modules))
	for _, module := range table.modules {
		if table.grantsAny(roles, module) {
			visible = append(visible, module)
		}
	}
	return visible
}

// CanAccess reports whether roles may open module.
func (table *Table) CanAccess(roles []string, module string) bool {
	if !slices.Contains(table.modules, module) {
		return false
	}
	return slices.Contains(roles, sec.RoleSuperAdmin) || table.grantsAny(roles, module)
}

func (table *Table) grantsAny(roles []string, module string) bool {
	for _, role := range roles {
		if _, ok := table.grants[role][module]; ok {
			return true
		}
	}
	return false
}
