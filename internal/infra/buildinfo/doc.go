// Package buildinfo provides build-time version information for netkv.
//
// Values are injected via ldflags:
//
//	go build -ldflags "-X github.com/ebalduf/netkv/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo
