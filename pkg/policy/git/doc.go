// Package git provides a GitOps rule source for the policy evaluator.
// Disclosure rules live as a YAML file in a Git repository; the source
// clones the repository locally, polls for new commits, and emits a reload
// event whenever the rules file changes between commits.
//
// Polling (rather than webhooks) keeps the engine free of inbound network
// surface. A pull that fails leaves the previous checkout, and therefore
// the previous rule table, in place.
package git
