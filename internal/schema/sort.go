package schema

import (
	"fmt"
	"strings"
)

// Order selects how tables connected by foreign keys are sequenced.
type Order int

const (
	// ConstraintSafe places every referenced table before the tables that
	// reference it. Required when the destination enforces foreign keys.
	ConstraintSafe Order = iota
	// Locality inserts a dependent table right before an already placed
	// reference. It groups related tables for extraction and makes no
	// topological promise.
	Locality
)

func (o Order) String() string {
	switch o {
	case ConstraintSafe:
		return "constraint-safe"
	case Locality:
		return "locality"
	}
	return fmt.Sprintf("order(%d)", int(o))
}

// ParseOrder resolves an order from its configuration name.
func ParseOrder(name string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "constraint-safe", "constraint_safe", "safe":
		return ConstraintSafe, nil
	case "locality", "":
		return Locality, nil
	}
	return 0, fmt.Errorf("unknown table order %q (want constraint-safe or locality)", name)
}

// DependencyError is returned when tables cannot be ordered: a foreign key
// references a table outside the input set, or the references form a cycle.
type DependencyError struct {
	Unresolved []string
	Cycle      []string
}

func (e *DependencyError) Error() string {
	if len(e.Unresolved) > 0 {
		return fmt.Sprintf("cannot order tables: referenced tables not found in the model: %s",
			strings.Join(e.Unresolved, ", "))
	}
	return fmt.Sprintf("cannot order tables: circular foreign keys between %s", strings.Join(e.Cycle, ", "))
}

// Sort orders tables with the given policy.
func Sort(tables []*Table, o Order) ([]*Table, error) {
	switch o {
	case ConstraintSafe:
		return SortConstraintSafe(tables)
	case Locality:
		return SortLocality(tables)
	}
	return nil, fmt.Errorf("unknown table order %d", int(o))
}

// SortConstraintSafe returns tables ordered so that for every foreign key
// from T to R, R comes strictly before T. Tables are visited in input order;
// a missing dependency is inserted at the candidate index, which then moves
// past it, and an already placed dependency pulls the candidate right behind
// itself.
func SortConstraintSafe(tables []*Table) ([]*Table, error) {
	ordered, err := place(tables, ConstraintSafe)
	if err != nil {
		return nil, err
	}
	if firstViolation(ordered) < 0 {
		return ordered, nil
	}
	return settle(ordered)
}

// SortLocality runs the same traversal without advancing the candidate index
// after inserting a dependency, and lands a table on the index of an already
// placed reference, i.e. right before it.
func SortLocality(tables []*Table) ([]*Table, error) {
	return place(tables, Locality)
}

func place(tables []*Table, o Order) ([]*Table, error) {
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		if _, ok := byName[t.Name]; !ok {
			byName[t.Name] = t
		}
	}

	var ordered []*Table
	var unresolved []string
	seenMissing := make(map[string]bool)

	for _, t := range tables {
		pos := indexOf(ordered, t.Name)
		if pos < 0 {
			pos = len(ordered)
		}

		for _, dep := range t.Dependencies() {
			ref, known := byName[dep]
			if !known {
				if !seenMissing[dep] {
					seenMissing[dep] = true
					unresolved = append(unresolved, dep)
				}
				continue
			}

			if at := indexOf(ordered, dep); at >= 0 {
				pos = at
				if o == ConstraintSafe {
					pos++
				}
				continue
			}

			ordered = insertAt(ordered, pos, ref)
			if o == ConstraintSafe {
				pos++
			}
		}

		if indexOf(ordered, t.Name) < 0 {
			ordered = insertAt(ordered, pos, t)
		}
	}

	if len(unresolved) > 0 {
		return nil, &DependencyError{Unresolved: unresolved}
	}
	return ordered, nil
}

// settle re-sequences a placement that left a dependency behind its
// dependent: repeatedly take the earliest table whose dependencies are all
// placed, so the result stays as close to the greedy order as possible.
func settle(tables []*Table) ([]*Table, error) {
	sorted := make([]*Table, 0, len(tables))
	processed := make(map[string]bool, len(tables))

	for len(sorted) < len(tables) {
		added := false
		for _, t := range tables {
			if processed[t.Name] {
				continue
			}
			ready := true
			for _, dep := range t.Dependencies() {
				if !processed[dep] {
					ready = false
					break
				}
			}
			if ready {
				sorted = append(sorted, t)
				processed[t.Name] = true
				added = true
				break
			}
		}

		if !added {
			var cycle []string
			for _, t := range tables {
				if !processed[t.Name] {
					cycle = append(cycle, t.Name)
				}
			}
			return nil, &DependencyError{Cycle: cycle}
		}
	}
	return sorted, nil
}

// firstViolation returns the index of the first table placed before one of
// its dependencies, or -1.
func firstViolation(tables []*Table) int {
	for i, t := range tables {
		for _, dep := range t.Dependencies() {
			if indexOf(tables, dep) > i {
				return i
			}
		}
	}
	return -1
}

func indexOf(tables []*Table, name string) int {
	for i, t := range tables {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func insertAt(tables []*Table, pos int, t *Table) []*Table {
	tables = append(tables, nil)
	copy(tables[pos+1:], tables[pos:])
	tables[pos] = t
	return tables
}
