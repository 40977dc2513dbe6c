package loader

import (
	"fmt"

	"github.com/user/ratatosk/pkg/descriptor"
	"gopkg.in/yaml.v3"
)

// transformDoc is one element of the portable transformations list. Each
// element is a single-key mapping naming the variant, e.g.
//
//   - select: [a, b]
//   - rename: {old: new}
//   - convert: {column: a, to: float}
//   - aggregate: {group_by: [a], metrics: [{column: b, func: sum}]}
//
// Decoding goes through yaml.Node so rename mappings keep document order.
type transformDoc struct {
	Transformation descriptor.Transformation
	node           yaml.Node
}

func (t *transformDoc) UnmarshalYAML(value *yaml.Node) error {
	t.node = *value
	return nil
}

func (t transformDoc) MarshalYAML() (any, error) {
	tr := t.Transformation
	switch tr.Kind {
	case descriptor.TransformSelect:
		return map[string][]string{"select": tr.Columns}, nil
	case descriptor.TransformRename:
		mapping := &yaml.Node{Kind: yaml.MappingNode}
		for _, r := range tr.Renames {
			mapping.Content = append(mapping.Content,
				scalarNode(r.From), scalarNode(r.To))
		}
		node := &yaml.Node{Kind: yaml.MappingNode}
		node.Content = append(node.Content, scalarNode("rename"), mapping)
		return node, nil
	case descriptor.TransformConvert:
		return map[string]map[string]string{
			"convert": {"column": tr.Convert.Column, "to": tr.Convert.To},
		}, nil
	case descriptor.TransformAggregate:
		metrics := make([]map[string]string, 0, len(tr.Aggregate.Metrics))
		for _, m := range tr.Aggregate.Metrics {
			metrics = append(metrics, map[string]string{"column": m.Column, "func": m.Func})
		}
		return map[string]map[string]any{
			"aggregate": {
				"group_by": tr.Aggregate.GroupBy,
				"metrics":  metrics,
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown transformation kind %q", tr.Kind)
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

func (t *transformDoc) toTransformation(index int) (descriptor.Transformation, error) {
	path := fmt.Sprintf("transformations[%d]", index)
	var zero descriptor.Transformation

	if t.node.Kind != yaml.MappingNode || len(t.node.Content) != 2 {
		return zero, &ParseError{Path: path, Reason: "each transformation must be a single-key mapping"}
	}
	key := t.node.Content[0].Value
	body := t.node.Content[1]

	switch key {
	case "select":
		var columns []string
		if err := body.Decode(&columns); err != nil {
			return zero, &ParseError{Path: path + ".select", Reason: "select must be a list of column names"}
		}
		return descriptor.Transformation{Kind: descriptor.TransformSelect, Columns: columns}, nil

	case "rename":
		if body.Kind != yaml.MappingNode {
			return zero, &ParseError{Path: path + ".rename", Reason: "rename must be a mapping of old to new column names"}
		}
		var renames []descriptor.RenamePair
		for i := 0; i+1 < len(body.Content); i += 2 {
			renames = append(renames, descriptor.RenamePair{
				From: body.Content[i].Value,
				To:   body.Content[i+1].Value,
			})
		}
		return descriptor.Transformation{Kind: descriptor.TransformRename, Renames: renames}, nil

	case "convert":
		var conv struct {
			Column string `yaml:"column"`
			To     string `yaml:"to"`
		}
		if err := body.Decode(&conv); err != nil {
			return zero, &ParseError{Path: path + ".convert", Reason: "convert must carry column and to"}
		}
		return descriptor.Transformation{
			Kind:    descriptor.TransformConvert,
			Convert: &descriptor.Conversion{Column: conv.Column, To: conv.To},
		}, nil

	case "aggregate":
		var agg struct {
			GroupBy []string `yaml:"group_by"`
			Metrics []struct {
				Column string `yaml:"column"`
				Func   string `yaml:"func"`
			} `yaml:"metrics"`
		}
		if err := body.Decode(&agg); err != nil {
			return zero, &ParseError{Path: path + ".aggregate", Reason: "aggregate must carry group_by and metrics"}
		}
		out := &descriptor.Aggregation{GroupBy: agg.GroupBy}
		for _, m := range agg.Metrics {
			out.Metrics = append(out.Metrics, descriptor.Metric{Column: m.Column, Func: m.Func})
		}
		return descriptor.Transformation{Kind: descriptor.TransformAggregate, Aggregate: out}, nil
	}

	return zero, &ParseError{Path: path, Reason: fmt.Sprintf("unknown transformation %q", key)}
}
