package fileext

import "strings"

// Normalize lowercases the extension of a filename while preserving the base
// name's case exactly. Only the final path segment is examined; directory
// components and separators pass through untouched. A segment with no
// period, a leading-period segment (dotfiles), or a trailing period has no
// extension to normalize and is returned unchanged.
// PRE: none
// POST: returns name with only the final extension lowercased
// INVARIANT: Normalize(Normalize(x)) == Normalize(x)
func Normalize(name string) string {
	slash := strings.LastIndexAny(name, `/\`)
	seg := name[slash+1:]
	dot := strings.LastIndexByte(seg, '.')
	if dot <= 0 || dot == len(seg)-1 {
		return name
	}
	ext := seg[dot+1:]
	lower := strings.ToLower(ext)
	if lower == ext {
		return name
	}
	return name[:slash+1+dot+1] + lower
}

// NeedsNormalizing reports whether a filename's extension contains an
// uppercase character, i.e. Normalize would change it.
// PRE: none
// POST: returns true iff Normalize(name) != name
func NeedsNormalizing(name string) bool {
	return Normalize(name) != name
}
