// Package rules holds per-insurer-program DRP guideline configuration.
//
// A RuleSet is an immutable value constructed once per program and
// passed by reference through the pipeline; nothing mutates it after
// load. A Catalog maps program IDs to rule sets and fails with
// ErrConfigNotFound for unknown programs or categories — there is no
// silent default.
//
// # Sources
//
// Rule sets load from YAML files (one file per program) via koanf,
// layered over the built-in defaults for that program. FileSource can
// additionally watch the rules directory with fsnotify and swap the
// catalog atomically when a file changes:
//
//	src, err := rules.NewFileSource("/etc/drpcheck/rules", logger)
//	if err != nil { ... }
//	defer src.Close()
//	go src.Watch(ctx)
//
//	rs, err := src.Rules(ctx, "geico_arx")
//
// The geico_arx program ships with complete built-in defaults so the
// pipeline is usable with an empty rules directory.
package rules
