// Package trust scores how much a caller has earned disclosure in a given
// topic domain.
//
// Each (caller, domain) pair accumulates observed successes and failures of
// trustworthy behavior in a Beta-style profile. The score is the smoothed
// mean of the accumulators, discounted by how long ago the profile was last
// updated: trust that is never refreshed slides back toward uncertainty.
// Scores are classified into Green, Amber and Red bands with fixed
// boundaries; the per-domain disclosure thresholds applied by the decision
// engine are separate and configurable.
//
// The scorer distinguishes two kinds of missing evidence: a caller with no
// profile anywhere is a stranger and gets a low default, while a known
// caller entering a new domain gets a medium-low default. The asymmetry is
// deliberate.
package trust
