// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import "os"

// Prune removes entries whose source file no longer exists on disk and
// returns the number removed. Entries whose source is still present are
// retained untouched. The caller is responsible for calling Save.
func Prune(s Store) int {
	pruned := 0
	for _, e := range s.Entries() {
		if _, err := os.Stat(e.SourcePath); os.IsNotExist(err) {
			s.Delete(e.SourcePath)
			pruned++
		}
	}
	return pruned
}
