package schemafile

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/records/pkg/record"
)

// FactoryKey is the metadata key under which a field built from a schema
// file records the name of its default factory.
const FactoryKey = "factory"

// factories are the default factories a schema file can name.
var factories = map[string]record.Factory{
	"list": func() any { return []any{} },
	"map":  func() any { return map[string]any{} },
	"uuid": func() any { return uuid.Must(uuid.NewV7()).String() },
	"now":  func() any { return time.Now().UTC() },
}

// Factory returns the named factory.
func Factory(name string) (record.Factory, error) {
	fn, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFactory, name)
	}
	return fn, nil
}

// FactoryNames lists the factories a schema file can name.
func FactoryNames() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
