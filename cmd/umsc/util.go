package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quality-measures/accelerator/internal/ums"
)

func loadMeasure(path string) (*ums.Measure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading measure file %s: %w", path, err)
	}
	var m ums.Measure
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing measure file %s: %w", path, err)
	}
	return &m, nil
}

func printIssues(label string, issues ums.IssueList) {
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", label, issue.Error())
	}
}
