package utils

import "strings"

// MinQueryLen: query pencarian yang lebih pendek dianggap bukan pencarian.
const MinQueryLen = 2

// ClampLimit menerapkan default dan batas atas limit.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Pola dari ContainsPattern dan PrefixPattern memakai '!' sebagai escape, jadi query
// harus ditulis `LIKE ? ESCAPE '!'`.
var likeReplacer = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ContainsPattern membentuk pola LIKE "mengandung q" dengan % dan _ dari input
// diperlakukan sebagai huruf biasa.
func ContainsPattern(q string) string {
	return "%" + likeReplacer.Replace(q) + "%"
}

// PrefixPattern membentuk pola LIKE "diawali q".
func PrefixPattern(q string) string {
	return likeReplacer.Replace(q) + "%"
}
