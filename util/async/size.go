package async

import (
	"runtime"
	"strings"

	"github.com/curtisnewbie/cpubridge/util/errs"
	"github.com/curtisnewbie/cpubridge/util/utillog"
	"github.com/shirou/gopsutil/cpu"
)

// How the number of available processing units is counted.
type Sizing string

const (
	SizingGoMaxProcs Sizing = "gomaxprocs" // runtime.GOMAXPROCS(0), default.
	SizingLogical    Sizing = "logical"    // logical cores of the host.
	SizingPhysical   Sizing = "physical"   // physical cores of the host.
)

func ParseSizing(s string) (Sizing, error) {
	switch v := Sizing(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return SizingGoMaxProcs, nil
	case SizingGoMaxProcs, SizingLogical, SizingPhysical:
		return v, nil
	}
	return SizingGoMaxProcs, errs.NewErrf("unknown pool sizing '%v'", s)
}

func MaxProcs() int {
	return runtime.GOMAXPROCS(0)
}

// Count available processing units, falls back to GOMAXPROCS if the host can't be inspected.
func ProcessingUnits(s Sizing) int {
	switch s {
	case SizingLogical, SizingPhysical:
		n, err := cpu.Counts(s == SizingLogical)
		if err != nil || n < 1 {
			utillog.Warnf("Failed to count %v cpu cores, fallback to GOMAXPROCS, n: %v, %v", s, n, err)
			return MaxProcs()
		}
		return n
	}
	return MaxProcs()
}

// One worker per available processing unit.
func DefaultPoolSize() int {
	return ProcessingUnits(SizingGoMaxProcs)
}

// Return multi * GOMAXPROCS or min whichever is greater.
func CalcPoolSize(multi int, min int) int {
	if min < 1 {
		min = 1
	}
	n := multi * MaxProcs()
	if n < min {
		return min
	}
	return n
}
