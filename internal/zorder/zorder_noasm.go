//go:build !amd64 || noasm

package zorder

func init() {
	initCapabilities()
}
