// Package assembler wraps a node list into the final document envelope.
//
// Every meta counter is recomputed from the nodes, the result is validated,
// and the document is only returned when no fatal violation was found.
package assembler
