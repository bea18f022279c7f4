package multimethods

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDebugInfo(t *testing.T) {
	r := NewRegistry()
	registerAnimals(r)
	m, _ := declareEncounter(r)
	r.Initialize()

	info := r.DebugInfo()
	if len(info.Classes) != 6 {
		t.Fatal()
	}
	cow := info.Classes[3]
	if cow.Name != cowType.String() {
		t.Fatalf("got %s", cow.Name)
	}
	if !slices.Equal(cow.Bases, []string{herbivoreType.String()}) {
		t.Fatal()
	}
	if cow.Index != 2 || cow.Mask != "001000" {
		t.Fatal()
	}
	if !slices.Equal(cow.Slots, []int{1, 0}) {
		t.Fatalf("got %v", cow.Slots)
	}

	if len(info.Functions) != 1 {
		t.Fatal()
	}
	f := info.Functions[0]
	if f.Name != "encounter" {
		t.Fatal()
	}
	if !slices.Equal(f.Steps, []int{1, 4}) {
		t.Fatal()
	}
	if len(f.Table) != 12 || f.Table[0] != m.Function().Specializations()[0].String() {
		t.Fatal()
	}
	if f.Specializations[0].Next != "undefined" {
		t.Fatal()
	}
}

func TestDumpYAML(t *testing.T) {
	r := NewRegistry()
	registerAnimals(r)
	registerInterfaces(r)
	declareDisplay(r)
	r.Initialize()

	buf := new(bytes.Buffer)
	if err := r.DumpYAML(buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "name: display") {
		t.Fatalf("got %s", buf.String())
	}

	var info DebugInfo
	if err := yaml.Unmarshal(buf.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	expected := r.DebugInfo()
	if len(info.Classes) != len(expected.Classes) {
		t.Fatal()
	}
	if !slices.Equal(info.Functions[0].Table, expected.Functions[0].Table) {
		t.Fatal()
	}
	if !slices.Contains(info.Functions[0].Table, "ambiguous") {
		t.Fatal()
	}
}

func TestVisualize(t *testing.T) {
	r := NewRegistry()
	registerAnimals(r)
	registerInterfaces(r)
	declareDisplay(r)

	buf := new(bytes.Buffer)
	if err := r.Visualize(buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{
		"digraph",
		`label="display"`,
		`label="multimethods.Cow"`,
	} {
		if !strings.Contains(out, s) {
			t.Fatalf("no %q in %s", s, out)
		}
	}
}

func TestAllClasses(t *testing.T) {
	r := NewRegistry()
	registerAnimals(r)
	var names []string
	for c := range r.AllClasses() {
		names = append(names, c.Type().Name())
		if c.Type() == carnivoreType {
			break
		}
	}
	if !slices.Equal(names, []string{"Animal", "Herbivore", "Carnivore"}) {
		t.Fatalf("got %v", names)
	}

	declareEncounter(r)
	r.DeclareFunction("other", cowType)
	n := 0
	for range r.AllFunctions() {
		n++
	}
	if n != 2 {
		t.Fatal()
	}
}
