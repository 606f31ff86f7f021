// Package formats handles the plain-text surf file format.
//
// A surf file starts with a description line and a header of count lines,
// followed by a Points section and a Lines (2D) or Triangles (3D) section:
//
//	square
//
//	4 points
//	4 lines
//
//	Points
//
//	1 0.0 0.0
//	...
//
//	Lines
//
//	1 1 2
//	...
//
// '#' starts a comment that runs to the end of the line.
package formats
