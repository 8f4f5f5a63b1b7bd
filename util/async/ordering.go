package async

import (
	"strings"

	"github.com/curtisnewbie/cpubridge/util/errs"
)

// Submission discipline, a property of each submission rather than of the pool.
type Ordering uint8

const (
	// Most recently submitted job runs next.
	LIFO Ordering = iota

	// Oldest submitted job runs next.
	FIFO
)

func (o Ordering) String() string {
	switch o {
	case LIFO:
		return "lifo"
	case FIFO:
		return "fifo"
	}
	return "unknown"
}

// Parse "lifo" or "fifo", case insensitive.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lifo":
		return LIFO, nil
	case "fifo":
		return FIFO, nil
	}
	return LIFO, errs.NewErrf("unknown ordering '%v'", s)
}

// Receives a single wake-up once a pending outcome becomes available.
type Waker interface {
	Wake()
}

type WakerFunc func()

func (f WakerFunc) Wake() {
	f()
}
