// Package domain defines the core domain models for netkv: stored
// entries and the structured error taxonomy shared by the storage and
// server layers.
package domain
