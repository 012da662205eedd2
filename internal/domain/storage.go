package domain

import (
	"fmt"
	"strings"
)

// StorageKind names a session store backend.
type StorageKind string

const (
	StorageMemory StorageKind = "memory"
	StorageFile   StorageKind = "file"
	StorageBadger StorageKind = "badger"
)

// ParseStorageKind parses a backend name (case-insensitive). Empty means memory.
func ParseStorageKind(s string) (StorageKind, error) {
	switch k := StorageKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return StorageMemory, nil
	case StorageMemory, StorageFile, StorageBadger:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStorage, s)
	}
}
