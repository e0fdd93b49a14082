/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pointcloud

import "unicode/utf16"

const (
	offset32    uint32 = 2166136261
	prime32     uint32 = 16777619
	unitBuckets uint32 = 100000
)

// HashToUnit maps key to a stable value in [0,1).
//
// It is 32-bit FNV-1a over the UTF-16 code units of key, so the values match
// what a browser computes with charCodeAt for the same string.
func HashToUnit(key string) float64 {
	h := offset32
	for _, u := range utf16.Encode([]rune(key)) {
		h ^= uint32(u)
		h *= prime32
	}

	return float64(h%unitBuckets) / float64(unitBuckets)
}

func clamp(n, lo, hi float64) float64 {
	return max(lo, min(hi, n))
}
