/*
Package dsl provides a Go DSL for programmatically constructing atlas narrative graphs.

Hand-authored nodes are added through a fluent builder, grouped into named
sections so that build errors can point at the place a node was defined.
Repetitive sections are described declaratively with Chain and SkillCheck
descriptors and expanded into concrete nodes.

Example usage:

	b := dsl.New()

	opening := b.Group("opening", domain.CategoryStory)
	opening.Add("mission_briefing").
		Title("Mission Briefing").
		Body("You are Analyst ALT-7.").
		Choice("choice_trajectory", "Analyze trajectory data", "skill_trajectory_type")

	b.SkillCheck(dsl.SkillCheck{
		ID:       "skill_trajectory_type",
		Title:    "Trajectory Analysis",
		Question: "Which trajectory proves interstellar origin?",
		Correct:  domain.Choice{ID: "correct_hyperbolic", Label: "Hyperbolic", NextID: "ending_the_messenger"},
		Wrong:    []domain.Choice{{ID: "incorrect_elliptical", Label: "Elliptical", Cost: 1}},
	})

	b.Group("endings", domain.CategoryEnding).
		Add("ending_the_messenger").
		Title("OUTCOME: The Messenger").
		Terminal()

	reg, err := b.Build() // *domain.BuildError on duplicate ids or open chains
*/
package dsl
