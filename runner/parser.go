package runner

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StepSpec is the YAML form of a step; Timeout is a duration string like
// "10m" and zero means no limit.
type StepSpec struct {
	Name    string            `yaml:"name"`
	Run     string            `yaml:"run"`
	Env     map[string]string `yaml:"env,omitempty"`
	Timeout string            `yaml:"timeout,omitempty"`
}

// Config is a pipeline definition file (verigo.yml): explicit steps first,
// then an optional test phase that expands to its two partition steps.
type Config struct {
	Steps []StepSpec  `yaml:"steps"`
	Tests *TestConfig `yaml:"tests,omitempty"`
}

// LoadConfig reads and parses a pipeline definition.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig is the built-in gate used when no verigo.yml exists:
// format check, strict lint, then the two test partitions.
func DefaultConfig() *Config {
	return &Config{
		Steps: []StepSpec{
			{Name: "format-check", Run: "cargo +nightly fmt --all -- --check"},
			{Name: "lint", Run: "cargo clippy --workspace --all-targets -- -D warnings"},
		},
		Tests: &TestConfig{Command: "cargo nextest run --workspace"},
	}
}

// Pipeline expands the config into the ordered step list the runner
// executes. It validates the result: at least one step, and every step
// named, uniquely.
func (c *Config) Pipeline() ([]Step, error) {
	steps := make([]Step, 0, len(c.Steps)+2)
	for _, spec := range c.Steps {
		step, err := spec.toStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	if c.Tests != nil && c.Tests.Command != "" {
		steps = append(steps, c.Tests.TestSteps()...)
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("pipeline has no steps")
	}
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		if step.Name == "" {
			return nil, fmt.Errorf("step with command %q has no name", step.Run)
		}
		if step.Run == "" {
			return nil, fmt.Errorf("step %q has no command", step.Name)
		}
		if seen[step.Name] {
			return nil, fmt.Errorf("duplicate step name %q", step.Name)
		}
		seen[step.Name] = true
	}
	return steps, nil
}

func (s StepSpec) toStep() (Step, error) {
	step := Step{Name: s.Name, Run: s.Run, Env: s.Env}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return Step{}, fmt.Errorf("step %q has invalid timeout %q: %w", s.Name, s.Timeout, err)
		}
		step.Timeout = d
	}
	return step, nil
}
