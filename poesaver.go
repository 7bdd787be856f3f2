// Package poesaver saves shared Poe conversations as markdown documents.
// It fetches a share page, recovers the ordered list of conversation turns
// from the page's embedded data or, failing that, from its visible text,
// and renders the result as a markdown file.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, glamour/).
package poesaver
