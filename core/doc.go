// Package core holds the user-resolution contracts and the Service that
// orchestrates them: preference overrides, session access, configuration
// layering, error envelopes and observability. Transport, identity and
// storage adapters depend on core; core never imports them.
package core
