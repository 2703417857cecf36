// Package defs holds the definition tree for adaptive music projects and
// the XML loader that builds it.
//
// Two layouts are accepted: a <project> root carrying bpm, beatsPerBar and
// track children, and the older form with <track> elements at the top level.
//
// Example:
//
//	project, err := defs.XMLLoader{}.Load(data)
//	if err != nil {
//		log.Fatal(err)
//	}
package defs
