// Package policy implements the policy evaluator, the first stage of the
// disclosure pipeline. It maps (domain, security classification, caller) to
// an allow/deny verdict plus mandatory redaction tags, from a YAML rule
// table that can be hot-reloaded from a file or a Git checkout.
//
// The evaluator is pure with respect to a loaded rule table: the same input
// always produces the same Result. Two rules are absolute:
//
//   - An Ultra-classified request from any caller other than the configured
//     data owner is denied, regardless of the domain table.
//   - A missing or malformed rule table fails closed to deny, never to allow.
//
// Unknown domains default to permissive, matching the reference behavior.
package policy
