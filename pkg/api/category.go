package api

import "fmt"

// Task is a unit of work submitted to an executor.
type Task func()

// Category is a workload class. The set is closed: strategies only ever
// route to one of the constants below.
type Category string

const (
	// CategoryGeneral is served by the elastic general-purpose pool.
	CategoryGeneral Category = "general"

	// CategoryRequest is reserved for latency-sensitive request messages.
	CategoryRequest Category = "request"

	// CategoryBroadcast is reserved for broadcast fan-out.
	CategoryBroadcast Category = "broadcast"
)

// Categories lists every known category.
func Categories() []Category {
	return []Category{CategoryGeneral, CategoryRequest, CategoryBroadcast}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryRequest, CategoryBroadcast:
		return true
	}
	return false
}

// ParseCategory converts s into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", configErrorf("category", "unknown value %q", s)
	}
	return c, nil
}

// Workload identifiers emitted by the messaging layer for the processors
// that get dedicated pools.
const (
	WorkloadRequestMessage   = "RequestMessageClientProcessor"
	WorkloadBroadcastMessage = "BroadcastMessageClientProcessor"
)

// Classifier maps an opaque workload identifier onto a Category.
//
// Implementations must be safe for concurrent use; they are consulted on
// every lookup.
type Classifier interface {
	Classify(workload string) Category
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(workload string) Category

func (f ClassifierFunc) Classify(workload string) Category { return f(workload) }

// MapClassifier resolves workloads through a fixed table. Unknown workloads
// fall back to CategoryGeneral. The map must not be modified after it is
// handed to a strategy.
type MapClassifier map[string]Category

func (m MapClassifier) Classify(workload string) Category {
	if c, ok := m[workload]; ok {
		return c
	}
	return CategoryGeneral
}

// Reserved returns the categories the table routes to, other than general.
func (m MapClassifier) Reserved() []Category {
	seen := make(map[Category]bool)
	var out []Category
	for _, c := range Categories() {
		for _, mapped := range m {
			if mapped == c && c != CategoryGeneral && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

func (c Category) String() string { return string(c) }

// UnitName is the conventional executor name for a category.
func UnitName(c Category) string {
	return fmt.Sprintf("processor-executor-%s", c)
}
