// Package metadata recovers clean song metadata from damaged or noisy sources.
//
// Two concerns live here:
//
// 1. Mojibake repair: tag fields written in a legacy Korean-family encoding
// and later decoded as Latin-1 (the classic "¹æÅº¼Ò³â´Ü" damage). [Repairer]
// re-encodes candidate strings to their original bytes, consults a charset
// detector, and falls back through the Korean family. Repair is fail-soft and
// never returns an error; text it cannot fix passes through unchanged.
//
// 2. Line parsing: splitting "Artist - Title" display lines and stripping
// YouTube video-title noise ("(Official Music Video)", "[MV]", "4K") before
// the split.
package metadata
