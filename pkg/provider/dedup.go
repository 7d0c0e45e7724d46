package provider

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DedupKey is the cross-provider duplicate key: lowercased title plus start
// time as epoch seconds.
func DedupKey(title string, start time.Time) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(title), start.Unix())
}

// DedupedAndSorted sorts items ascending by start time (stable, so ties keep
// source fetch order) and drops every item whose dedup key was already seen.
// The first occurrence in sorted order survives.
func DedupedAndSorted[T any](items []T, title func(T) string, start func(T) time.Time) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return start(sorted[i]).Before(start(sorted[j]))
	})

	seen := make(map[string]struct{}, len(sorted))
	unique := make([]T, 0, len(sorted))
	for _, item := range sorted {
		key := DedupKey(title(item), start(item))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}
