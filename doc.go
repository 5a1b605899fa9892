/*
Package atlas builds, validates and reports on branching narrative graphs.

A narrative is a directed graph of nodes (scenes) connected by choices. Atlas
assembles the nodes into a single JSON document together with derived counts
and a token economy, and refuses to emit a document whose graph is broken.

# Pipeline

  - Definitions: nodes come from the fluent builder (pkg/dsl), a YAML or JSON
    blueprint (pkg/blueprint), chunk documents (pkg/merge) or a node-per-file
    tree (pkg/adapters/loam).
  - Registry: every id is registered once; duplicates are collected, never
    overwritten.
  - Assembly: counts are recomputed and the reference validator runs. Fatal
    violations discard the document; warnings travel with it.
  - Report: nodes are bucketed by category for a console summary.

# Usage

	eng := atlas.New(atlas.WithLogger(logger))

	bp, err := blueprint.Load("story.yaml")
	if err != nil {
		log.Fatal(err)
	}

	res, err := eng.Build(ctx, bp)
	if err != nil {
		for _, v := range domain.Violations(err) {
			log.Println(v.Severity(), v)
		}
		os.Exit(2)
	}
	_ = file.WriteDocument("dist/narrative.json", res.Document)

# Edit lock

Authors and agents editing the sources concurrently coordinate through
ports.EditLocker, backed by a lock file or Redis. See cmd/atlas lock.
*/
package atlas
