// Package harness implements the composition harness (spec §2): it loads
// paired measure/patient fixtures, runs the full compile pipeline across
// every SQL dialect, exercises the patient-trace evaluator, and reports
// regressions against each fixture's expected outcome.
package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/quality-measures/accelerator/internal/evaluator"
	"github.com/quality-measures/accelerator/internal/ums"
)

// Fixture pairs one authored measure with one or more test patients and
// their expected outcomes, the way a regression test pins expected
// behavior against a known input.
type Fixture struct {
	Name        string            `yaml:"name"`
	MeasurePath string            `yaml:"measure"`
	Patients    []PatientFixture  `yaml:"patients"`
}

// PatientFixture names one patient file and the final outcome a passing
// run must produce for it.
type PatientFixture struct {
	Name           string `yaml:"name"`
	PatientPath    string `yaml:"patient"`
	ExpectOutcome  string `yaml:"expectOutcome"`
}

// LoadFixture reads a fixture manifest and the measure it references,
// resolving relative paths against the manifest's own directory.
func LoadFixture(path string) (*Fixture, *ums.Measure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	measureData, err := os.ReadFile(filepath.Join(dir, f.MeasurePath))
	if err != nil {
		return nil, nil, fmt.Errorf("reading fixture measure %s: %w", f.MeasurePath, err)
	}
	var m ums.Measure
	if err := yaml.Unmarshal(measureData, &m); err != nil {
		return nil, nil, fmt.Errorf("parsing fixture measure %s: %w", f.MeasurePath, err)
	}

	return &f, &m, nil
}

// loadPatient reads one patient fixture file relative to the manifest
// directory.
func loadPatient(manifestPath string, pf PatientFixture) (*evaluator.Patient, error) {
	dir := filepath.Dir(manifestPath)
	data, err := os.ReadFile(filepath.Join(dir, pf.PatientPath))
	if err != nil {
		return nil, fmt.Errorf("reading patient fixture %s: %w", pf.PatientPath, err)
	}
	var p evaluator.Patient
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing patient fixture %s: %w", pf.PatientPath, err)
	}
	return &p, nil
}
