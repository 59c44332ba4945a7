package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"genetic/internal/model"
	"genetic/pkg/genetic"
)

// runFile is the on-disk run description. JSON files load too since JSON
// is valid YAML.
type runFile struct {
	Objective          string `yaml:"objective"`
	Seed               uint64 `yaml:"seed"`
	UseObjectiveBounds bool   `yaml:"use_objective_bounds"`

	genetic.RunConfig `yaml:",inline"`
}

func defaultRunFile() runFile {
	return runFile{
		Objective: "sphere",
		RunConfig: genetic.DefaultConfig[float64, uint64](),
	}
}

// loadOrDefaultRunFile overlays the file at path on the defaults.
func loadOrDefaultRunFile(path string) (runFile, error) {
	file := defaultRunFile()
	if path == "" {
		return file, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return runFile{}, err
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return runFile{}, fmt.Errorf("parse run config %s: %w", path, err)
	}
	return file, nil
}

// overrideFromFlags applies the flags the user set explicitly.
func overrideFromFlags(file *runFile, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "objective":
			file.Objective = v.(string)
		case "seed":
			file.Seed = v.(uint64)
		case "objective-bounds":
			file.UseObjectiveBounds = v.(bool)
		case "pop":
			file.PopulationSize = v.(int)
		case "gens":
			file.MaxGenerations = v.(int)
		case "vectors":
			file.NumberOfVectors = v.(int)
		case "dim":
			file.Dimension = v.(int)
		case "min":
			file.MinReal = v.(float64)
		case "max":
			file.MaxReal = v.(float64)
		case "bits":
			file.IntegerBits = v.(int)
		case "crossover":
			method, err := model.ParseCrossoverMethod(v.(string))
			if err != nil {
				return err
			}
			file.CrossoverMethod = method
		case "tournament":
			file.TournamentSize = v.(int)
		case "elitism":
			file.EnableElitism = v.(bool)
		case "auto-adapt":
			file.EnableAutoAdaptation = v.(bool)
		case "mutation":
			file.InitialMutationProbability = v.(float64)
		case "uniform-prob":
			file.UniformCrossoverProbability = v.(float64)
		case "print-interval":
			file.PrintInterval = v.(int)
		default:
			return fmt.Errorf("unsupported override flag: %s", name)
		}
	}
	return nil
}
