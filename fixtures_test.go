package multimethods

import (
	"reflect"
	"testing"
)

type Animal struct {
	Object
}

type Herbivore struct {
	Animal
}

type Carnivore struct {
	Animal
}

type Cow struct {
	Herbivore
}

type Wolf struct {
	Carnivore
}

type Tiger struct {
	Carnivore
}

type Interface struct {
	Object
}

type Terminal struct {
	Interface
}

type Window struct {
	Interface
}

var (
	animalType    = reflect.TypeFor[Animal]()
	herbivoreType = reflect.TypeFor[Herbivore]()
	carnivoreType = reflect.TypeFor[Carnivore]()
	cowType       = reflect.TypeFor[Cow]()
	wolfType      = reflect.TypeFor[Wolf]()
	tigerType     = reflect.TypeFor[Tiger]()
	interfaceType = reflect.TypeFor[Interface]()
	terminalType  = reflect.TypeFor[Terminal]()
	windowType    = reflect.TypeFor[Window]()
)

func types(ts ...reflect.Type) []reflect.Type {
	return ts
}

func registerAnimals(r *Registry) {
	Register[Animal](r)
	Register[Herbivore](r, animalType)
	Register[Carnivore](r, animalType)
	Register[Cow](r, herbivoreType)
	Register[Wolf](r, carnivoreType)
	Register[Tiger](r, carnivoreType)
}

func registerInterfaces(r *Registry) {
	Register[Interface](r)
	Register[Terminal](r, interfaceType)
	Register[Window](r, interfaceType)
}

type encounterFunc = func(a, b any) string

func declareEncounter(r *Registry) (m *Method[encounterFunc], specs map[string]*Specialization) {
	m = NewMethod[encounterFunc](r, "encounter", VirtualOf[Animal](), VirtualOf[Animal]())
	specs = make(map[string]*Specialization)
	add := func(name string, ret string, ts ...reflect.Type) {
		specs[name] = m.Add(func(a, b any) string {
			return ret
		}, ts...)
	}
	add("aa", "ignore", animalType, animalType)
	add("ca", "hunt", carnivoreType, animalType)
	add("cc", "fight", carnivoreType, carnivoreType)
	add("ww", "wag tail", wolfType, wolfType)
	add("hc", "run", herbivoreType, carnivoreType)
	return
}

// expectPanic calls fn and checks that it panics with an error matching target.
func expectPanic(t *testing.T, target error, fn func()) (err error) {
	t.Helper()
	func() {
		defer func() {
			p := recover()
			if p == nil {
				t.Fatal("should panic")
			}
			var ok bool
			err, ok = p.(error)
			if !ok {
				t.Fatalf("got %v", p)
			}
			if !is(err, target) {
				t.Fatalf("got %v", err)
			}
		}()
		fn()
	}()
	return
}
