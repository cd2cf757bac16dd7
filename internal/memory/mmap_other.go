//go:build !unix

package memory

import "errors"

var errNoMmap = errors.New("memory: anonymous mappings not supported on this platform")

func mapAnonymous(int) ([]byte, error) {
	return nil, errNoMmap
}

func unmap([]byte) error {
	return errNoMmap
}
