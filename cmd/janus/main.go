// Janus is a disclosure-decision engine: it decides what a conversational
// agent may reveal, to whom, and under which safeguards.
//
// Every candidate disclosure is evaluated against a policy rule table,
// accumulated caller trust, estimated mutual knowledge, evidentiary
// provenance, and a risk assessment, producing an auditable decision with
// machine-readable reason codes.
//
// Usage:
//
//	# Start the engine with default configuration
//	janus run
//
//	# Start with a custom configuration file
//	janus run --config /path/to/config.yaml
//
//	# Evaluate a single request and print the decision as JSON
//	janus evaluate --caller spouse-1 --domain family --utterance "how did the visit go"
//
//	# Validate a rules file
//	janus lint --file rules.yaml
//
//	# Run a trust decay sweep once and exit
//	janus decay --config config.yaml
//
//	# Show version information
//	janus version
package main

func main() {
	Execute()
}
