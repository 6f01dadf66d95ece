package parser

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/resting/packages/history"
	"github.com/abdul-hamid-achik/resting/packages/value"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// Schema returns the JSON schema scripts are validated against.
func Schema() []byte {
	return schemaJSON
}

type Parser struct {
	file string
}

func NewParser(file string) *Parser {
	return &Parser{file: file}
}

// ParseFile reads and parses a YAML or JSON script.
func ParseFile(path string) (*Script, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(content, path)
}

func Parse(data []byte, filename string) (*Script, error) {
	return NewParser(filename).Parse(data)
}

func (p *Parser) Parse(data []byte) (*Script, error) {
	// Tab indented JSON is valid JSON but not valid YAML.
	if bytes.ContainsRune(data, '\t') && json.Valid(data) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err == nil {
			data = buf.Bytes()
		}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{File: p.file, Message: err.Error()}
	}
	if len(doc.Content) == 0 {
		return nil, &ParseError{File: p.file, Message: "empty script"}
	}
	root := doc.Content[0]

	tree, err := p.decode(root)
	if err != nil {
		return nil, err
	}
	if err := p.validate(tree); err != nil {
		return nil, err
	}
	return p.script(root)
}

func (p *Parser) validate(tree value.Value) error {
	document, err := json.Marshal(tree)
	if err != nil {
		return &ParseError{File: p.file, Message: fmt.Sprintf("script is not representable as JSON: %v", err)}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &ParseError{File: p.file, Message: fmt.Sprintf("schema validation error: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &ParseError{File: p.file, Message: "invalid script: " + strings.Join(problems, "; ")}
}

func (p *Parser) script(root *yaml.Node) (*Script, error) {
	script := &Script{
		Path:        p.file,
		Environment: value.NewObject(),
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, node := root.Content[i], resolve(root.Content[i+1])
		switch key.Value {
		case "environment":
			if node.ShortTag() == "!!null" {
				continue
			}
			v, err := p.decode(node)
			if err != nil {
				return nil, err
			}
			script.Environment = v.(*value.Object)
		case "steps":
			for _, item := range node.Content {
				step, err := p.step(resolve(item))
				if err != nil {
					return nil, err
				}
				script.Steps = append(script.Steps, step)
			}
		}
	}

	return script, nil
}

func (p *Parser) step(node *yaml.Node) (*Step, error) {
	step := &Step{
		Label: DefaultLabel,
		Line:  node.Line,
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, field := node.Content[i], resolve(node.Content[i+1])
		switch key.Value {
		case "label":
			if err := history.ValidateLabel(field.Value); err != nil {
				return nil, p.errorAt(field, err.Error())
			}
			step.Label = field.Value
		case "method":
			step.Method = strings.ToUpper(strings.TrimSpace(field.Value))
		case "url":
			step.URL = field.Value
		case "headers":
			for _, item := range field.Content {
				header, err := p.header(resolve(item))
				if err != nil {
					return nil, err
				}
				step.Headers = append(step.Headers, header)
			}
		case "json":
			v, err := p.decode(field)
			if err != nil {
				return nil, err
			}
			step.JSON = v
		case "tests":
			for _, item := range field.Content {
				t, err := p.test(resolve(item))
				if err != nil {
					return nil, err
				}
				step.Tests = append(step.Tests, t)
			}
		}
	}

	if step.Method == "" {
		return nil, p.errorAt(node, "step has no method")
	}
	return step, nil
}

func (p *Parser) header(node *yaml.Node) (*Header, error) {
	header := &Header{Line: node.Line}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, field := node.Content[i], resolve(node.Content[i+1])
		switch key.Value {
		case "name":
			header.Name = strings.TrimSpace(field.Value)
		case "value":
			header.Value = field.Value
		}
	}
	if header.Name == "" {
		return nil, p.errorAt(node, "header has no name")
	}
	return header, nil
}

func (p *Parser) test(node *yaml.Node) (Test, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, p.errorAt(node, fmt.Sprintf("a test needs exactly one of %s", strings.Join(Tags, ", ")))
	}

	tag, field := node.Content[0], resolve(node.Content[1])
	v, err := p.decode(field)
	if err != nil {
		return nil, err
	}

	switch tag.Value {
	case TagSleep:
		return Sleep{Duration: v, Line: tag.Line}, nil
	case TagStatus:
		return Status{Expected: v, Line: tag.Line}, nil
	case TagEqual:
		pair, ok := v.(value.Array)
		if !ok {
			return nil, p.errorAt(field, "eq expects a list of two values")
		}
		return Equal{Pair: pair, Line: tag.Line}, nil
	case TagUpdateEnvironment:
		values, ok := v.(*value.Object)
		if !ok {
			return nil, p.errorAt(field, "update_environment expects a mapping")
		}
		return UpdateEnvironment{Values: values, Line: tag.Line}, nil
	case TagPrint:
		return Print{Message: v, Line: tag.Line}, nil
	default:
		return nil, p.errorAt(tag, fmt.Sprintf("unknown test %q", tag.Value))
	}
}

// decode turns a YAML node into a value, keeping mapping order.
func (p *Parser) decode(node *yaml.Node) (value.Value, error) {
	node = resolve(node)

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return value.Null{}, nil
		}
		return p.decode(node.Content[0])
	case yaml.MappingNode:
		obj := value.NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := resolve(node.Content[i])
			if key.Kind != yaml.ScalarNode {
				return nil, p.errorAt(key, "mapping keys must be scalars")
			}
			member, err := p.decode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(key.Value, member)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make(value.Array, 0, len(node.Content))
		for _, item := range node.Content {
			member, err := p.decode(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, member)
		}
		return arr, nil
	case yaml.ScalarNode:
		return p.scalar(node)
	default:
		return nil, p.errorAt(node, "unsupported YAML node")
	}
}

func (p *Parser) scalar(node *yaml.Node) (value.Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return value.Null{}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, p.errorAt(node, err.Error())
		}
		return value.Bool(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err == nil {
			return value.Int(i), nil
		}
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, p.errorAt(node, err.Error())
		}
		return value.Number(f), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, p.errorAt(node, err.Error())
		}
		return value.Number(f), nil
	default:
		return value.String(node.Value), nil
	}
}

func (p *Parser) errorAt(node *yaml.Node, message string) *ParseError {
	return &ParseError{
		File:    p.file,
		Line:    node.Line,
		Column:  node.Column,
		Message: message,
	}
}

func resolve(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
