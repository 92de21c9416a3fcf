package indexdef

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts either a scalar attribute name or a mapping of
// column name to field options. Mapping order is kept.
func (d *RawDefinition) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*d = Simple(value.Value)
		return nil
	case yaml.MappingNode:
		cols := make([]RawColumn, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			keyNode, valNode := value.Content[i], value.Content[i+1]
			var field RawField
			// A null value ("title:") means all options take their defaults.
			if valNode.ShortTag() != "!!null" {
				if err := valNode.Decode(&field); err != nil {
					return fmt.Errorf("column %q (line %d): %w", keyNode.Value, keyNode.Line, err)
				}
			}
			cols = append(cols, Col(keyNode.Value, field))
		}
		*d = Composite(cols...)
		return nil
	default:
		return fmt.Errorf("line %d: index definition must be a string or a mapping", value.Line)
	}
}

// MarshalYAML renders simple definitions as a string and composite ones as an ordered mapping.
func (d RawDefinition) MarshalYAML() (interface{}, error) {
	if !d.IsComposite() {
		return d.Attribute, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, c := range d.Columns {
		var val yaml.Node
		if err := val.Encode(c.Field); err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Column, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Column},
			&val,
		)
	}
	return node, nil
}
