/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
)

// humanReadableSize formats response sizes for the SERVE log lines.
func humanReadableSize(bytes int64) string {
	const unit = 1000

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	size := float64(bytes) / unit
	for _, prefix := range "kMGTP" {
		if size < unit {
			return fmt.Sprintf("%.1f %cB", size, prefix)
		}
		size /= unit
	}

	return fmt.Sprintf("%.1f EB", size)
}
