// Package cli renders run results for the terminal and maps run failures to
// process exit codes.
//
// Output is a go-pretty table by default, or JSON/YAML with --output for
// scripting. Long operations show a spinner on stderr unless --quiet is set.
//
// Exit codes:
//
//	0  the run succeeded
//	1  any other failure
//	2  pre-flight failure, nothing was changed, fix the input and re-run
//	3  partial change, re-run the same request once the cause is fixed
//	4  a target scope is locked by another run
package cli
