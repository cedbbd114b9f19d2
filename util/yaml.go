package util

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NewYamlError creates an error located at the given YAML node, for custom unmarshalers
func NewYamlError(node *yaml.Node, message string) error {
	return fmt.Errorf("yaml line %d:%d: %s", node.Line, node.Column, message)
}

// UnmarshalYamlFile decodes a YAML file into the output, see UnmarshalYamlReader
func UnmarshalYamlFile(path string, output interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return UnmarshalYamlReader(file, output)
}

// UnmarshalYamlReader decodes a YAML document into the output, on top of any values already set in it
//
// Unknown keys are errors, except inside custom unmarshalers. An empty document leaves the output untouched.
func UnmarshalYamlReader(reader io.Reader, output interface{}) error {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(output); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// UnmarshalYamlString decodes a YAML string into the output, see UnmarshalYamlReader
func UnmarshalYamlString(contents string, output interface{}) error {
	return UnmarshalYamlReader(strings.NewReader(contents), output)
}

// MarshalYaml encodes the source as YAML with 2-space indentation, e.g. to log the effective configuration
func MarshalYaml(source interface{}) (string, error) {
	writer := &bytes.Buffer{}
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(source); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	return writer.String(), nil
}
