// Package harness runs end-to-end compilation scenarios.
//
// A scenario is a YAML file naming a semantic layer, an IR query, and the
// expected outcome: exact SQL or a compile error code. Run compiles the
// query and checks the expectation; RunWithGolden additionally compares the
// rendered outcome against testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
