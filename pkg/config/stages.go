package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadStagesFile overlays per-stage model parameters from a YAML file:
//
//	structured:   {model: claude-3-opus-20240229, temperature: 0.1}
//	transactions: {model: claude-3-haiku-20240307}
//
// Stages or fields missing from the file keep their current values.
func loadStagesFile(path string, stages *StageModels) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading stages file: %w", err)
	}

	var overrides map[string]StageParams
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("error parsing stages file: %w", err)
	}

	for name, params := range overrides {
		target, err := stages.byName(name)
		if err != nil {
			return err
		}
		if params.Model != "" {
			target.Model = params.Model
		}
		if params.Temperature != 0 {
			target.Temperature = params.Temperature
		}
	}
	return nil
}

func (s *StageModels) byName(name string) (*StageParams, error) {
	switch name {
	case "structured":
		return &s.Structured, nil
	case "transactions":
		return &s.Transactions, nil
	case "insights":
		return &s.Insights, nil
	case "dispute":
		return &s.Dispute, nil
	}
	return nil, fmt.Errorf("unknown stage %q in stages file", name)
}
