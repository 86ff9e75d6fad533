// Package config provides declaratively defined, typed configuration
// objects for Go applications, with validation, per-field change history,
// hierarchical nesting, structural comparison, and round-trip script
// serialization.
//
// A configuration type is described by a Schema: a closed set of named,
// typed Field descriptors assembled once, optionally inheriting fields
// from parent schemas. Instances of a schema carry a value per field, an
// append-only history of every mutation (with the call site that made it),
// and a one-way frozen flag that locks the whole tree.
//
// Quick Start:
//
//	schema := config.NewSchema("Example")
//	schema.MustAdd("port", config.Field{
//	    Type:    config.TypeInt,
//	    Doc:     "TCP port the server listens on",
//	    Default: 8080,
//	    Check:   func(v any) bool { return v.(int64) > 0 },
//	})
//	schema.MustAdd("rate", config.Field{
//	    Type:    config.TypeFloat,
//	    Doc:     "sampling rate",
//	    Default: 1.0,
//	})
//
//	cfg, err := config.New(schema, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Set("port", 9090)
//
// Overrides are expressed as Lua scripts executed in a sandbox that exposes
// a single root binding (by default "config"); every assignment in the
// script goes through the normal validation and history path:
//
//	config.port = 9090
//	if config.rate > 0.5 then
//	    config.rate = 0.5
//	end
//
// Saving a config produces such a script, which reproduces the config
// exactly when loaded into a fresh instance of the same schema. File
// writes are atomic (staged to a temporary file, then renamed into place).
//
// Thread Safety:
// Schemas and the script module registry are safe for concurrent use after
// definition. Individual Config instances are not; callers that share an
// instance across goroutines must serialize access themselves.
package config
