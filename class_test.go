package multimethods

import (
	"reflect"
	"slices"
	"testing"
)

func TestRegisterClass(t *testing.T) {
	r := NewRegistry()
	registerAnimals(r)

	cow, ok := r.ClassOf(cowType)
	if !ok {
		t.Fatal()
	}
	if cow.Type() != cowType {
		t.Fatal()
	}
	if ptr, ok := r.ClassOf(reflect.TypeFor[*Cow]()); !ok || ptr != cow {
		t.Fatal("T and *T must name the same class")
	}
	herbivore, _ := r.ClassOf(herbivoreType)
	animal, _ := r.ClassOf(animalType)
	if !slices.Equal(cow.Bases(), []*Class{herbivore}) {
		t.Fatal()
	}
	if !slices.Contains(herbivore.Derived(), cow) {
		t.Fatal()
	}
	if cow.Root() != animal {
		t.Fatal()
	}
	if cow.Index() != -1 {
		t.Fatal("not indexed before Initialize")
	}

	// same bases
	if again := Register[Cow](r, herbivoreType); again != cow {
		t.Fatal()
	}

	// different bases
	expectPanic(t, ErrClassRedefinition, func() {
		Register[Cow](r, carnivoreType)
	})

	// unknown base
	expectPanic(t, ErrClassNotFound, func() {
		Register[Terminal](r, interfaceType)
	})

	// duplicated base
	expectPanic(t, ErrBadDefinition, func() {
		Register[Window](r, animalType, animalType)
	})

	expectPanic(t, ErrBadArgument, func() {
		r.RegisterClass(nil)
	})
}

func TestAbstract(t *testing.T) {
	r := NewRegistry()
	type Shape interface{}
	shape := Register[Shape](r)
	if !shape.Abstract {
		t.Fatal("interface classes are abstract")
	}
	registerAnimals(r)
	animal, _ := r.ClassOf(animalType)
	if animal.Abstract {
		t.Fatal()
	}
	animal.SetAbstract(true)
	r.Initialize()
	expectPanic(t, ErrBadArgument, func() {
		New[Animal](r)
	})
	New[Cow](r)
}

func TestConformsTo(t *testing.T) {
	r := NewRegistry()
	registerAnimals(r)
	registerInterfaces(r)

	class := func(t reflect.Type) *Class {
		c, _ := r.ClassOf(t)
		return c
	}
	animal := class(animalType)
	herbivore := class(herbivoreType)
	carnivore := class(carnivoreType)
	cow := class(cowType)
	wolf := class(wolfType)
	terminal := class(terminalType)

	check := func() {
		t.Helper()
		if !cow.ConformsTo(animal) || !cow.ConformsTo(herbivore) || !cow.ConformsTo(cow) {
			t.Fatal()
		}
		if cow.ConformsTo(carnivore) || animal.ConformsTo(cow) || wolf.ConformsTo(herbivore) {
			t.Fatal()
		}
		if cow.ConformsTo(terminal) {
			t.Fatal()
		}
		if !cow.Specializes(animal) || cow.Specializes(cow) || animal.Specializes(cow) {
			t.Fatal()
		}
	}

	// before Initialize, by walking bases
	check()
	r.Initialize()
	// after Initialize, by masks
	check()
}

func TestMasks(t *testing.T) {
	r := NewRegistry()
	registerAnimals(r)
	r.Initialize()

	expected := map[reflect.Type]struct {
		index int
		mask  string
	}{
		animalType:    {0, "111111"},
		herbivoreType: {1, "011000"},
		cowType:       {2, "001000"},
		carnivoreType: {3, "000111"},
		wolfType:      {4, "000010"},
		tigerType:     {5, "000001"},
	}
	for typ, e := range expected {
		c, _ := r.ClassOf(typ)
		if c.Index() != e.index {
			t.Fatalf("%v: got index %d", c, c.Index())
		}
		if c.Mask().String() != e.mask {
			t.Fatalf("%v: got mask %v", c, c.Mask())
		}
	}
}

func TestForEachConforming(t *testing.T) {
	r := NewRegistry()
	type X struct{ Object }
	type A struct{ X }
	type B struct{ A }
	type C struct{ A }
	type BC struct {
		B
		C
	}
	Register[X](r)
	Register[A](r, reflect.TypeFor[X]())
	Register[B](r, reflect.TypeFor[A]())
	Register[C](r, reflect.TypeFor[A]())
	Register[BC](r, reflect.TypeFor[B](), reflect.TypeFor[C]())

	a, _ := r.ClassOf(reflect.TypeFor[A]())
	var visited []string
	a.ForEachConforming(func(c *Class) {
		visited = append(visited, c.Type().Name())
	})
	if !slices.Equal(visited, []string{"A", "B", "BC", "C"}) {
		t.Fatalf("got %v", visited)
	}
}

func TestSingleRoot(t *testing.T) {
	r := NewRegistry(WithSingleRoot())
	type X struct{ Object }
	type Y struct{ Object }
	type XY struct {
		X
		Y
	}
	Register[X](r)
	Register[Y](r)
	expectPanic(t, ErrSingleRootViolation, func() {
		Register[XY](r, reflect.TypeFor[X](), reflect.TypeFor[Y]())
	})

	// allowed by default
	r = NewRegistry()
	Register[X](r)
	Register[Y](r)
	Register[XY](r, reflect.TypeFor[X](), reflect.TypeFor[Y]())
}

func TestUnregisterClass(t *testing.T) {
	r := NewRegistry()
	registerAnimals(r)
	m, _ := declareEncounter(r)
	r.Initialize()

	type Dog struct {
		Carnivore
	}
	dogType := reflect.TypeFor[Dog]()
	Register[Dog](r, carnivoreType)
	if !r.Pending() {
		t.Fatal()
	}
	r.UnregisterClass(dogType)
	if _, ok := r.ClassOf(dogType); ok {
		t.Fatal()
	}
	r.Initialize()
	if r.Pending() {
		t.Fatal()
	}
	if res := m.Function().Dispatch(new(Cow), new(Wolf)); res.Func().(encounterFunc)(nil, nil) != "run" {
		t.Fatalf("got %v", res)
	}

	// has derived classes
	expectPanic(t, ErrBadArgument, func() {
		r.UnregisterClass(carnivoreType)
	})
	// used by a specialization
	expectPanic(t, ErrBadArgument, func() {
		r.UnregisterClass(wolfType)
	})
	// unknown
	expectPanic(t, ErrClassNotFound, func() {
		r.UnregisterClass(dogType)
	})

	// leaf without references
	r.UnregisterClass(tigerType)
	r.Initialize()
	carnivore, _ := r.ClassOf(carnivoreType)
	if len(carnivore.Derived()) != 1 {
		t.Fatal()
	}
	expectPanic(t, ErrClassNotFound, func() {
		m.Function().Dispatch(Tiger{}, Cow{})
	})
}
