package multimethods

import (
	"cmp"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// DebugInfo is a snapshot of a registry's classes, functions and pending work.
type DebugInfo struct {
	Classes          []ClassDebugInfo    `yaml:"classes"`
	Functions        []FunctionDebugInfo `yaml:"functions"`
	PendingClasses   []string            `yaml:"pending_classes,omitempty"`
	PendingFunctions []string            `yaml:"pending_functions,omitempty"`
}

type ClassDebugInfo struct {
	Name     string   `yaml:"name"`
	Bases    []string `yaml:"bases,omitempty"`
	Abstract bool     `yaml:"abstract,omitempty"`
	Index    int      `yaml:"index"`
	Mask     string   `yaml:"mask"`
	Slots    []int    `yaml:"slots,flow"`
}

type FunctionDebugInfo struct {
	Name            string                    `yaml:"name"`
	Params          []string                  `yaml:"params,flow"`
	Slots           []int                     `yaml:"slots,flow"`
	Steps           []int                     `yaml:"steps,flow"`
	Specializations []SpecializationDebugInfo `yaml:"specializations"`
	Table           []string                  `yaml:"table"`
}

type SpecializationDebugInfo struct {
	Args []string `yaml:"args,flow"`
	Next string   `yaml:"next"`
}

func classNames(classes []*Class) []string {
	ret := make([]string, 0, len(classes))
	for _, c := range classes {
		ret = append(ret, c.String())
	}
	return ret
}

func (r *Registry) DebugInfo() (info DebugInfo) {
	for c := range r.AllClasses() {
		info.Classes = append(info.Classes, ClassDebugInfo{
			Name:     c.String(),
			Bases:    classNames(c.bases),
			Abstract: c.Abstract,
			Index:    c.index,
			Mask:     c.mask.String(),
			Slots:    slices.Clone(c.table.Slots),
		})
	}

	for f := range r.AllFunctions() {
		fInfo := FunctionDebugInfo{
			Name:   f.name,
			Params: classNames(f.vargs),
			Slots:  slices.Clone(f.slots),
			Steps:  slices.Clone(f.steps),
		}
		for _, spec := range f.specializations {
			fInfo.Specializations = append(fInfo.Specializations, SpecializationDebugInfo{
				Args: classNames(spec.args),
				Next: spec.next.String(),
			})
		}
		for _, cell := range f.table {
			fInfo.Table = append(fInfo.Table, cell.String())
		}
		info.Functions = append(info.Functions, fInfo)
	}

	if r.classesToInitialize != nil {
		var ids []ClassID
		r.classesToInitialize.Iter(func(id ClassID, _ struct{}) bool {
			ids = append(ids, id)
			return false
		})
		slices.SortFunc(ids, func(a, b ClassID) int {
			return cmp.Compare(a, b)
		})
		for _, id := range ids {
			if c := r.classes[id]; c != nil {
				info.PendingClasses = append(info.PendingClasses, c.String())
			}
		}
	}
	if r.functionsToInitialize != nil {
		var ids []FunctionID
		r.functionsToInitialize.Iter(func(id FunctionID, _ struct{}) bool {
			ids = append(ids, id)
			return false
		})
		slices.Sort(ids)
		for _, id := range ids {
			if f := r.functions[id]; f != nil {
				info.PendingFunctions = append(info.PendingFunctions, f.String())
			}
		}
	}

	return
}

// DumpYAML writes the DebugInfo snapshot as YAML.
func (r *Registry) DumpYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(r.DebugInfo()); err != nil {
		return we(err)
	}
	if err := encoder.Close(); err != nil {
		return we(err)
	}
	return nil
}
