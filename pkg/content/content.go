// Package content ships the built-in blueprint of The ATLAS Directive.
package content

import (
	_ "embed"
	"fmt"

	"github.com/aretw0/atlas/pkg/blueprint"
)

//go:embed atlas.yaml
var atlasYAML []byte

// Default returns a freshly parsed copy of the built-in blueprint.
func Default() (*blueprint.Blueprint, error) {
	bp, err := blueprint.Parse(atlasYAML, blueprint.FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("built-in blueprint: %w", err)
	}
	return bp, nil
}

// Raw returns the embedded YAML source.
func Raw() []byte {
	out := make([]byte, len(atlasYAML))
	copy(out, atlasYAML)
	return out
}
