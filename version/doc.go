// Package version reports the canvasflow build.
//
// Version, commit, branch and build time are injected with -ldflags; when
// they are not, commit and build time fall back to the VCS stamp the Go
// toolchain embeds:
//
//	go build -ldflags "-X github.com/kbukum/canvasflow/version.Version=1.2.0" ./cmd/canvasflow
package version
