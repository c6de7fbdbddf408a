// Package config provides centralized configuration for the ecopolicy
// engine. All default values are defined here to keep a single source of
// truth between the CLI and embedding callers.
package config

// DefaultBaseDir is the root directory for engine state, relative to the
// working directory.
const DefaultBaseDir = ".ecopolicy"

// Deterministic rule evaluator defaults.
const (
	// DefaultRulesDir holds the .rego rule files.
	DefaultRulesDir = ".ecopolicy/rules"

	// DefaultRulePackage is the Rego package queried for derived relations.
	DefaultRulePackage = "ecopolicy.rules"
)

// DefaultModelPath is the probabilistic model weights file.
const DefaultModelPath = ".ecopolicy/model.yaml"

// DefaultDataDir holds the knowledge and praxis databases side by side.
const DefaultDataDir = ".ecopolicy/data"

// DefaultUpdateThreshold is the positive praxis-observation count that must
// be exceeded before a model update triggers.
const DefaultUpdateThreshold = 10
