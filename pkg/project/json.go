package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// maxNesting bounds arrays and objects in a JSON document. It sits well
// above what MaxDepth groups need so the group limit reports first.
const maxNesting = 8 * MaxDepth

// isJSON reports whether data looks like a JSON object or array.
func isJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// jsonDocument decodes a JSON document into the node tree the YAML path
// produces. Every JSON escape is honored and object keys keep their order.
func jsonDocument(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimLeft(data, "\ufeff")))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	root, err := jsonValue(dec, tok, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after the document")
		}
		return nil, err
	}
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}, nil
}

func jsonValue(dec *json.Decoder, tok json.Token, depth int) (*yaml.Node, error) {
	switch v := tok.(type) {
	case json.Delim:
		if depth >= maxNesting {
			return nil, fmt.Errorf("document nested deeper than %d levels", maxNesting)
		}
		if v == '{' {
			return jsonObject(dec, depth+1)
		}
		return jsonArray(dec, depth+1)
	case string:
		return scalar("!!str", v), nil
	case json.Number:
		if _, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return scalar("!!int", v.String()), nil
		}
		return scalar("!!float", v.String()), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(v)), nil
	case nil:
		return scalar("!!null", "null"), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func jsonObject(dec *json.Decoder, depth int) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if tok == json.Delim('}') {
			return node, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		val, err := jsonValue(dec, tok, depth)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, scalar("!!str", key), val)
	}
}

func jsonArray(dec *json.Decoder, depth int) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if tok == json.Delim(']') {
			return node, nil
		}
		val, err := jsonValue(dec, tok, depth)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, val)
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}
