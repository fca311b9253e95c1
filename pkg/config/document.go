package config

import (
	"bytes"
	"os"

	"github.com/npclaudiu/devenv/pkg/consts"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrConfigMissing is returned when the configuration file does not exist.
var ErrConfigMissing = errors.New("config file not found")

// Document is a parsed YAML configuration file.
//
// The document keeps the yaml.v3 node tree rather than decoded maps, so edits
// made through Set and SetSection leave comments, key order, and formatting of
// untouched nodes intact when the document is written back.
type Document struct {
	path string
	root *yaml.Node
}

// Parse parses YAML data into a Document that is not bound to a file.
// Empty input yields an empty mapping.
func Parse(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, "failed to parse config document")
	}

	if node.Kind == 0 {
		node = yaml.Node{Kind: yaml.DocumentNode}
	}

	// Comment-only files parse to a document without content.
	if node.Kind == yaml.DocumentNode && len(node.Content) == 0 {
		node.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}

	if node.Kind != yaml.DocumentNode || len(node.Content) != 1 {
		return nil, errors.New("config document must contain a single YAML document")
	}

	if node.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("config document root must be a mapping")
	}

	return &Document{root: &node}, nil
}

// Load reads and parses the configuration file at path. ErrConfigMissing is
// returned (wrapped) when the file does not exist.
//
// Example:
//
//	doc, err := config.Load("config.yaml")
//	if errors.Is(err, config.ErrConfigMissing) {
//		log.Fatal("run `devenv objectstore credentials` first")
//	}
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrConfigMissing, "config file not found at %s", path)
		}

		return nil, errors.Wrapf(err, "failed to read file: %s", path)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}

	doc.path = path
	return doc, nil
}

// EnsureFile makes sure a configuration file exists at path. When it does not,
// the example template is copied into place, or an empty document is written
// if there is no template either. It reports whether the file was created.
func EnsureFile(path, example string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, errors.Wrapf(err, "failed to stat %s", path)
	}

	data := []byte("{}\n")
	if example != "" {
		tmpl, err := os.ReadFile(example)
		switch {
		case err == nil:
			data = tmpl
		case !os.IsNotExist(err):
			return false, errors.Wrapf(err, "failed to read example config: %s", example)
		}
	}

	if err := os.WriteFile(path, data, consts.ModeSecretFile); err != nil {
		return false, errors.Wrapf(err, "failed to write file %s", path)
	}

	return true, nil
}

// Path returns the file the document was loaded from, if any.
func (d *Document) Path() string {
	return d.path
}

// Get returns the value at the given attribute path decoded into plain Go
// values (maps, slices, scalars). The boolean is false when the path does not
// exist.
func (d *Document) Get(path string) (any, bool, error) {
	node, err := d.lookup(path)
	if err != nil || node == nil {
		return nil, false, err
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, false, errors.Wrapf(err, "failed to decode %s", path)
	}

	return v, true, nil
}

// Decode decodes the subtree at path into out. The boolean is false when the
// path does not exist, in which case out is left untouched.
func (d *Document) Decode(path string, out any) (bool, error) {
	node, err := d.lookup(path)
	if err != nil || node == nil {
		return false, err
	}

	if err := node.Decode(out); err != nil {
		return false, errors.Wrapf(err, "failed to decode %s", path)
	}

	return true, nil
}

// Set stores value at path, creating intermediate mappings as needed. Existing
// nodes along the path keep their comments; a replaced value inherits the
// comments of the node it replaces.
func (d *Document) Set(path string, value any) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}

	next, err := encodeValue(value)
	if err != nil {
		return errors.Wrapf(err, "failed to encode value for %s", path)
	}

	return d.set(p, next)
}

// SetSection replaces the top-level section key with value as a whole,
// dropping any keys the section had before.
func (d *Document) SetSection(key string, value any) error {
	next, err := encodeValue(value)
	if err != nil {
		return errors.Wrapf(err, "failed to encode section %s", key)
	}

	return d.set(Path{{Name: key}}, next)
}

// Bytes renders the document as YAML.
func (d *Document) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)

	if err := enc.Encode(d.root); err != nil {
		return nil, errors.Wrap(err, "failed to encode config document")
	}

	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close yaml encoder")
	}

	return buf.Bytes(), nil
}

// Save writes the whole document back to the file it was loaded from.
func (d *Document) Save() error {
	if d.path == "" {
		return errors.New("document is not bound to a file")
	}

	return d.SaveAs(d.path)
}

// SaveAs writes the whole document to path and binds the document to it.
func (d *Document) SaveAs(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}

	mode := consts.ModeSecretFile
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	if err := os.WriteFile(path, data, mode); err != nil {
		return errors.Wrapf(err, "failed to write file %s", path)
	}

	d.path = path
	return nil
}

func (d *Document) lookup(path string) (*yaml.Node, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	node := d.root.Content[0]
	for _, step := range p {
		node = child(node, step)
		if node == nil {
			return nil, nil
		}
	}

	return node, nil
}

func (d *Document) set(p Path, value *yaml.Node) error {
	node := d.root.Content[0]
	for i, step := range p {
		last := i == len(p)-1
		unalias(node)

		switch node.Kind {
		case yaml.MappingNode:
			if step.ByIndex {
				return errors.Errorf("cannot index mapping at %s", p[:i+1])
			}

			existing := mappingValue(node, step.Name)
			if existing == nil {
				next := value
				if !last {
					next = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
				}

				// A flow mapping such as `{}` would render everything added to
				// it inline.
				node.Style &^= yaml.FlowStyle
				node.Content = append(node.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: step.Name},
					next,
				)
				node = next
				continue
			}

			if last {
				replace(existing, value)
				return nil
			}

			unalias(existing)
			if existing.Kind != yaml.MappingNode && existing.Kind != yaml.SequenceNode {
				// Scalars and nulls in the middle of a path become mappings.
				replace(existing, &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"})
			}

			node = existing
		case yaml.SequenceNode:
			idx, ok := step.sequenceIndex()
			if !ok || idx < 0 || idx >= len(node.Content) {
				return errors.Errorf("sequence index out of range at %s", p[:i+1])
			}

			if last {
				replace(node.Content[idx], value)
				return nil
			}

			node = node.Content[idx]
		default:
			return errors.Errorf("cannot descend into scalar at %s", p[:i])
		}
	}

	return nil
}

func child(node *yaml.Node, step Step) *yaml.Node {
	switch node.Kind {
	case yaml.MappingNode:
		if step.ByIndex {
			return nil
		}

		return mappingValue(node, step.Name)
	case yaml.SequenceNode:
		idx, ok := step.sequenceIndex()
		if !ok || idx < 0 || idx >= len(node.Content) {
			return nil
		}

		return node.Content[idx]
	case yaml.AliasNode:
		return child(node.Alias, step)
	default:
		return nil
	}
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}

	return nil
}

// unalias turns an alias node into a copy of the node it refers to, so edits
// below it leave the anchored original and its other aliases untouched.
func unalias(node *yaml.Node) {
	if node.Kind != yaml.AliasNode || node.Alias == nil {
		return
	}

	replace(node, deepCopy(node.Alias))
}

func deepCopy(node *yaml.Node) *yaml.Node {
	dup := *node
	dup.Anchor = ""
	if node.Content != nil {
		dup.Content = make([]*yaml.Node, len(node.Content))
		for i, c := range node.Content {
			dup.Content[i] = deepCopy(c)
		}
	}

	return &dup
}

// replace swaps the contents of dst for src while keeping dst's comments.
func replace(dst, src *yaml.Node) {
	head, line, foot := dst.HeadComment, dst.LineComment, dst.FootComment
	*dst = *src

	if dst.HeadComment == "" {
		dst.HeadComment = head
	}
	if dst.LineComment == "" {
		dst.LineComment = line
	}
	if dst.FootComment == "" {
		dst.FootComment = foot
	}
}

func encodeValue(value any) (*yaml.Node, error) {
	if n, ok := value.(*yaml.Node); ok {
		return n, nil
	}

	var node yaml.Node
	if err := node.Encode(value); err != nil {
		return nil, err
	}

	return &node, nil
}
