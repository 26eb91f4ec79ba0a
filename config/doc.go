// Package config holds the messaging runtime's root configuration: the
// socket factory's root URL, the default maximum frame size, and the
// server/subscribe receive-loop and client dial timeouts.
//
// # Basic usage
//
//	cfg := config.New(
//		config.WithRootURL("ipc:///tmp/myapp"),
//		config.WithMaxFrameSize(64*1024),
//	)
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// Loading from a YAML file:
//
//	cfg, err := config.Load("plumberd.yaml")
//
// # Thread-safe access
//
// SafeConfig wraps a Config for hosts that swap configuration at runtime:
//
//	safe := config.NewSafeConfig(cfg)
//	current := safe.Get()       // deep copy, safe to read
//	err := safe.Update(updated) // validated before it takes effect
package config
