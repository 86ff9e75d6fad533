package main

import (
	"fmt"
	"os"
	"path/filepath"

	config "schemaconfig"
)

// Demonstrates schema declaration, nested configs, overrides, history
// and script round-tripping.
func main() {
	retrySchema := config.NewSchema("RetryPolicy")
	retrySchema.MustAdd("attempts", config.Field{
		Type:    config.TypeInt,
		Doc:     "maximum delivery attempts before giving up",
		Default: 3,
		Check:   func(v any) bool { return v.(int64) > 0 },
	})
	retrySchema.MustAdd("backoff", config.Field{
		Type:    config.TypeFloat,
		Doc:     "multiplier applied to the delay after each failure",
		Default: 2.0,
	})

	serverSchema := config.NewSchema("ServerConfig", config.WithModule("example"))
	serverSchema.MustAdd("host", config.Field{
		Type:    config.TypeString,
		Doc:     "interface address to bind",
		Default: "127.0.0.1",
	})
	serverSchema.MustAdd("port", config.Field{
		Type:    config.TypeInt,
		Doc:     "listening port",
		Default: 8080,
		Check:   func(v any) bool { p := v.(int64); return p > 0 && p < 65536 },
	})
	serverSchema.MustAdd("retry", config.Field{
		Type:   config.TypeNested,
		Doc:    "delivery retry policy",
		Schema: retrySchema,
	})

	cfg := config.MustNew(serverSchema, nil)

	if err := cfg.Set("port", 9090); err != nil {
		fatal(err)
	}
	if err := cfg.LoadString(`
config.host = "0.0.0.0"
config.retry.attempts = 5
`); err != nil {
		fatal(err)
	}

	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	cfg.Freeze()

	host, _ := cfg.String("host")
	port, _ := cfg.Int("port")
	fmt.Printf("listening on %s:%d\n", host, port)

	history, _ := cfg.FormatHistory("port")
	fmt.Print(history)

	path := filepath.Join(os.TempDir(), "server-config.lua")
	if err := cfg.Save(path); err != nil {
		fatal(err)
	}
	fmt.Printf("saved override script to %s\n", path)

	reloaded := config.MustNew(serverSchema, nil)
	if err := reloaded.Load(path); err != nil {
		fatal(err)
	}
	fmt.Printf("round trip equal: %v\n", cfg.Equal(reloaded))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
