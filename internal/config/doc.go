// Package config provides user configuration management for formstate.
//
// The configuration file registers form definitions under short names and
// keeps a few preferences for the command line tools. The file location
// follows OS conventions:
//   - Linux: $XDG_CONFIG_HOME/formstate/config.yaml or $HOME/.config/formstate/config.yaml
//   - macOS: $HOME/.config/formstate/config.yaml
//   - Windows: %LOCALAPPDATA%\formstate\config.yaml
//
// Form values are never written to this file.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.AddForm("signup", "/home/ann/forms/signup.yaml")
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
