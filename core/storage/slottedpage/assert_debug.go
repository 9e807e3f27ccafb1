//go:build pagedebug

package slottedpage

import "fmt"

// Debug builds upgrade contract violations to panics. The release build
// compiles assertf away entirely, preserving the zero-overhead contract.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic("slottedpage: " + fmt.Sprintf(format, args...))
	}
}
