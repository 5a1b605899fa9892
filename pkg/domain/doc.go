/*
Package domain contains the data model of an atlas narrative document.

It defines the entities that are serialized into the output artifact and the
typed errors that the builder, validator and assembler report. This package is
kept pure and free of I/O.

# Key Entities

  - Node: a single narrative screen. A node without choices is an ending.
  - Choice: a labeled edge to another node, optionally gated by required flags.
  - Category: the authoring-time classification of a node.
  - Document: the envelope with meta, root_id, tokens and nodes.
  - Violation: an error with a Kind and a Severity. Fatal violations discard
    the document, warnings are reported alongside it.
*/
package domain
