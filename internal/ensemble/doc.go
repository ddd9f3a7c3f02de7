// Package ensemble holds the carriers created by one laser pulse and
// turns them into electron and hole current waveforms.
//
// Carrier files are plain text, one carrier per line:
//
//	<type> <charge> <x> <y> <generation time>
//
// with type "e" or "h", positions in µm and time in seconds.
package ensemble
