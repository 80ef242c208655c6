package main

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/mossgarden/zmcore/zmachine"
)

// ScenarioStep is one instruction of a manifest entry. Exactly one of
// its fields is meaningful per step, mirroring spec.md §8's literal
// byte scenarios expressed as data instead of hand-written Go.
type ScenarioStep struct {
	Poke *struct {
		Addr  uint32 `json:"addr"`
		Bytes []int  `json:"bytes"`
	} `json:"poke,omitempty"`
	RunOneInstruction  bool    `json:"run_one_instruction,omitempty"`
	ExpectStackTop     *uint16 `json:"expect_stack_top,omitempty"`
	ExpectPCAdvancedBy *uint32 `json:"expect_pc_advanced_by,omitempty"`
}

// Scenario is a single manifest entry: a story file, a sequence of
// steps against it, and the expectations those steps assert.
type Scenario struct {
	Name  string         `json:"name"`
	ROM   string         `json:"rom"`
	Steps []ScenarioStep `json:"steps"`
}

// ScenarioResult mirrors TestResult's pass/fail shape for a manifest
// entry rather than a whole-game run.
type ScenarioResult struct {
	Name         string `json:"name"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// loadManifest reads a YAML scenario manifest via sigs.k8s.io/yaml's
// YAML-to-JSON-to-struct path, the same unmarshalling shape
// internal/config uses for the interpreter's own config file.
func loadManifest(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenarios []Scenario
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return scenarios, nil
}

func runManifest(path string) []ScenarioResult {
	scenarios, err := loadManifest(path)
	if err != nil {
		fmt.Printf("Failed to load manifest: %v\n", err)
		os.Exit(1)
	}

	results := make([]ScenarioResult, 0, len(scenarios))
	for _, sc := range scenarios {
		results = append(results, runScenario(sc))
	}
	return results
}

func runScenario(sc Scenario) (result ScenarioResult) {
	result.Name = sc.Name

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.ErrorMessage = fmt.Sprintf("panic: %v", r)
		}
	}()

	storyBytes, err := os.ReadFile(sc.ROM)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("reading rom: %v", err)
		return
	}

	output := make(chan any, 256)
	input := make(chan zmachine.InputResponse, 1)
	saveRestore := make(chan zmachine.SaveRestoreResponse, 1)

	proc, err := zmachine.LoadRom(storyBytes, input, saveRestore, output)
	if err != nil {
		result.ErrorMessage = fmt.Sprintf("loading rom: %v", err)
		return
	}

	pcBeforeStep := proc.ProgramCounter()

	for i, step := range sc.Steps {
		switch {
		case step.Poke != nil:
			bytes := make([]byte, len(step.Poke.Bytes))
			for j, v := range step.Poke.Bytes {
				bytes[j] = byte(v)
			}
			proc.PokeBytes(step.Poke.Addr, bytes)
			proc.SetPC(step.Poke.Addr)
			pcBeforeStep = proc.ProgramCounter()

		case step.RunOneInstruction:
			pcBeforeStep = proc.ProgramCounter()
			if err := proc.StepOne(); err != nil {
				result.ErrorMessage = fmt.Sprintf("step %d run_one_instruction: %v", i, err)
				return
			}

		case step.ExpectStackTop != nil:
			top, err := proc.StackTop()
			if err != nil {
				result.ErrorMessage = fmt.Sprintf("step %d expect_stack_top: %v", i, err)
				return
			}
			if top != *step.ExpectStackTop {
				result.ErrorMessage = fmt.Sprintf("step %d expect_stack_top: got %d, want %d", i, top, *step.ExpectStackTop)
				return
			}

		case step.ExpectPCAdvancedBy != nil:
			got := proc.ProgramCounter() - pcBeforeStep
			if got != *step.ExpectPCAdvancedBy {
				result.ErrorMessage = fmt.Sprintf("step %d expect_pc_advanced_by: got %d, want %d", i, got, *step.ExpectPCAdvancedBy)
				return
			}
		}
	}

	result.Success = true
	return
}
