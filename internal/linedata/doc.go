// Package linedata reads line-listing files into a subway graph.
//
// A file describes one line. The first row is a header naming the branches of
// the line, every other row is either a station or a branch marker:
//
//	--- B C D E
//	Lechmere
//	Copley
//	---------- E
//	    Prudential
//	    Heath Street
//	--- B C D
//	Hynes Convention Center
//	Kenmore
//	---------- C
//	    Cleveland Circle
//
// A row of four or more dashes followed by a name starts a branch that forks
// from the last trunk station. A row of exactly three dashes and a space
// converges back: the next station links to the fork point and is tagged with
// the given, possibly compound, branch name. Indentation is ignored.
//
// A file is parsed and validated before the graph is touched, so a bad file
// never leaves half a line behind.
package linedata
