// Package ops registers one harness per pods operator. Each harness owns its
// positional input layout: the order of the cursor reads below is the wire
// format of its corpus, so reordering reads invalidates saved inputs.
//
// Importing the package for side effects registers every harness:
//
//	import _ "github.com/openfluke/loomfuzz/harness/ops"
package ops
