package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okian/instrank/internal/domain/model"
)

var errEmptyDocument = errors.New("empty document")

// loadSubmissions reads a YAML or JSON file holding either a list of
// submissions or a single metrics record. A bare record becomes one
// submission named after the file.
func loadSubmissions(path string) ([]model.Submission, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return decodeSubmissions(raw, path)
}

func decodeSubmissions(raw []byte, name string) ([]model.Submission, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("parse %s: %w", name, errEmptyDocument)
	}

	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		var subs []model.Submission
		if err := root.Decode(&subs); err != nil {
			return nil, fmt.Errorf("decode submissions in %s: %w", name, err)
		}
		return subs, nil
	}

	var sub model.Submission
	if hasKey(root, "institution_id") || hasKey(root, "metrics") {
		if err := root.Decode(&sub); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
	} else if err := root.Decode(&sub.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics in %s: %w", name, err)
	}
	if sub.InstitutionID == "" {
		sub.InstitutionID = name
	}
	return []model.Submission{sub}, nil
}

func hasKey(n *yaml.Node, key string) bool {
	if n.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}
