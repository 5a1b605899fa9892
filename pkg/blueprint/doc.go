// Package blueprint reads the declarative description of a narrative from
// YAML or JSON and expands it through the dsl builder.
//
// A blueprint lists sections in the order their nodes should appear in the
// document:
//
//	meta:
//	  title: The ATLAS Directive
//	  version: 1.0.0
//	  root_id: mission_briefing
//	tokens:
//	  chrono: {start: 3, earn_rules: [{action: reach_milestone, amount: 3}]}
//	sections:
//	  - group:
//	      name: opening
//	      category: story
//	      nodes: [...]
//	  - skill_check: {id: skill_trajectory_type, ...}
//	  - chain: {prefix: transition_node, count: 25, exit: perihelion_approach_major}
package blueprint
