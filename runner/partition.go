package runner

import (
	"fmt"
	"strings"
)

// Defaults follow cargo-nextest filter expressions; override Select and
// Exclude in the tests block for other runners (e.g. "-run %s" / "-skip %s"
// for go test).
const (
	defaultSerialMarker = "serial_db"
	defaultSelect       = "-E 'test(%s)'"
	defaultExclude      = "-E 'not test(%s)'"
	defaultSerialArgs   = "--test-threads 1"
)

// TestConfig describes the test phase of the pipeline. The phase always
// expands to exactly two steps split by the serial marker, so the rule for
// what counts as serial lives in one place instead of two hand-maintained
// filter strings.
type TestConfig struct {
	// Command invokes the external test runner; filter arguments are
	// appended to it.
	Command string `yaml:"command" json:"command"`

	// SerialMarker tags tests that contend on the shared database. A test
	// identifier containing the marker belongs to the serial partition.
	SerialMarker string `yaml:"serial_marker,omitempty" json:"serial_marker,omitempty"`

	// Select and Exclude are fmt templates with one %s (the marker) that
	// render the runner's filter argument for each partition.
	Select  string `yaml:"select,omitempty" json:"select,omitempty"`
	Exclude string `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	// SerialArgs is appended to the serial step to forbid the runner's
	// own internal concurrency (the non-serial step keeps whatever
	// concurrency the runner defaults to).
	SerialArgs string `yaml:"serial_args,omitempty" json:"serial_args,omitempty"`
}

// SerialPredicate returns the partition predicate for a marker: a test
// belongs to the serial set iff its identifier contains the marker.
func SerialPredicate(marker string) func(testID string) bool {
	return func(testID string) bool {
		return strings.Contains(testID, marker)
	}
}

// Partition splits test identifiers into the serial and non-serial sets.
// The two sets are disjoint and together cover every identifier, for any
// universe and any predicate.
func Partition(ids []string, isSerial func(string) bool) (serial, nonSerial []string) {
	for _, id := range ids {
		if isSerial(id) {
			serial = append(serial, id)
		} else {
			nonSerial = append(nonSerial, id)
		}
	}
	return serial, nonSerial
}

// TestSteps expands the test phase into its two pipeline steps: the
// non-serial partition first, then the serial one. The orchestrator runs
// them strictly in sequence, so serial tests never overlap the rest of the
// suite; within the serial step SerialArgs keeps them from overlapping
// each other.
func (tc TestConfig) TestSteps() []Step {
	marker := tc.SerialMarker
	if marker == "" {
		marker = defaultSerialMarker
	}
	sel := tc.Select
	if sel == "" {
		sel = defaultSelect
	}
	excl := tc.Exclude
	if excl == "" {
		excl = defaultExclude
	}
	serialArgs := tc.SerialArgs
	if serialArgs == "" {
		serialArgs = defaultSerialArgs
	}

	unit := Step{
		Name: "tests:unit",
		Run:  tc.Command + " " + fmt.Sprintf(excl, marker),
	}
	serial := Step{
		Name: "tests:serial-db",
		Run:  strings.TrimSpace(tc.Command + " " + fmt.Sprintf(sel, marker) + " " + serialArgs),
	}
	return []Step{unit, serial}
}
