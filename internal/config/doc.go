// Package config loads, validates, and resolves fuzzypick configuration.
//
// Configuration is read from a single TOML or YAML file chosen by
// extension. Keys absent from the file keep their defaults, so a config
// file only needs to name what it changes:
//
//	strategy = "backtrack"
//	tiebreak = "score+matches"
//	fold_diacritics = true
//	min_score = 0
//
//	[backtrack]
//	recursion_budget = 12
//
//	[backtrack.weights]
//	separator = 40
//
// A missing file is not an error; Load returns the defaults. Validate
// checks the parsed values, and Build resolves them into selector options,
// looking up non-built-in strategy names in a fuzzy.Registry.
package config
