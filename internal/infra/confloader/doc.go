// Package confloader provides configuration loading for netkv.
//
// It loads configuration from multiple sources using koanf, with later
// sources overriding earlier ones:
//
//  1. Default values (the caller passes a pre-populated struct)
//  2. YAML configuration file
//  3. Environment variables (NETKV_ prefix)
//
// A companion fsnotify-based Watcher re-reads the file on change so
// the server can apply hot-reloadable settings (log level) without a
// restart.
package confloader
