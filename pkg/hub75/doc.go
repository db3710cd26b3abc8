// Package hub75 drives HUB75 RGB LED matrix panels through two primitive
// line operations: set a group of output lines and clear a group of output
// lines.
//
// A panel is wired with 13 lines: two color triplets (R1 G1 B1 for the upper
// half, R2 G2 B2 for the lower half), four row address lines (A B C D), clock,
// latch and output enable. NewPins validates the wiring and derives the bit
// masks once; NewRenderer binds those lines and Render scans packed frames
// onto the panel using binary coded modulation, showing bitplane n for 2^n
// row scans so that a frame of depth D shows 2^D levels per channel.
//
// Frames are packed one byte per column per multiplex row per bitplane; see
// Encode and Decode for the byte layout.
package hub75
