package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/records-go/internal/core/domain"
)

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()

	switch v := data.(type) {
	case domain.Snapshot:
		return enc.Encode(snapshotNode(v))
	case []domain.Snapshot:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, s := range v {
			seq.Content = append(seq.Content, snapshotNode(s))
		}
		return enc.Encode(seq)
	}
	return enc.Encode(data)
}

// snapshotNode builds a mapping node so attribute order survives
// encoding; yaml.v3 sorts plain map keys.
func snapshotNode(s domain.Snapshot) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value any) {
		var v yaml.Node
		if err := v.Encode(value); err != nil {
			v = yaml.Node{Kind: yaml.ScalarNode, Value: domain.Render(value)}
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&v)
	}

	add(domain.IDAttribute, s.ID)
	if s.Attributes != nil {
		for pair := s.Attributes.Oldest(); pair != nil; pair = pair.Next() {
			add(pair.Key, pair.Value)
		}
	}
	return node
}
