package env

import (
	"os"
	"strings"

	"github.com/abdul-hamid-achik/resting/packages/value"
)

// Environment is the mutable variable store of one run. Writes are visible to
// every later lookup; there is no isolation and no rollback. It is not safe
// for concurrent use.
type Environment struct {
	vars *value.Object
}

// New creates an Environment seeded from the given objects, later sources
// overriding earlier ones. The seeds are copied, so a script definition can be
// run more than once.
func New(seeds ...*value.Object) *Environment {
	e := &Environment{vars: value.NewObject()}
	for _, seed := range seeds {
		seed.Range(func(k string, v value.Value) bool {
			e.vars.Set(k, v)
			return true
		})
	}
	return e
}

func (e *Environment) Get(key string) (value.Value, bool) {
	return e.vars.Get(key)
}

func (e *Environment) Set(key string, v value.Value) {
	e.vars.Set(key, v)
}

func (e *Environment) Len() int {
	return e.vars.Len()
}

func (e *Environment) IsEmpty() bool {
	return e == nil || e.vars.Len() == 0
}

// Root exposes the variables as an Object for path resolution. Callers must
// not modify it.
func (e *Environment) Root() *value.Object {
	return e.vars
}

// LoadSystemEnv collects OS environment variables whose name starts with
// prefix, with the prefix stripped. An empty prefix collects nothing.
func LoadSystemEnv(prefix string) *value.Object {
	result := value.NewObject()
	if prefix == "" {
		return result
	}
	for _, kv := range os.Environ() {
		key, v, found := strings.Cut(kv, "=")
		if !found || len(key) <= len(prefix) || !strings.HasPrefix(key, prefix) {
			continue
		}
		result.Set(key[len(prefix):], value.String(v))
	}
	return result
}
