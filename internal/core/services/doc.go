// Package services implements the driving port interfaces.
// Services contain the core business logic - collection schema
// management, content classification, document routing and the
// multi-namespace search aggregator - and orchestrate calls to
// driven ports (adapters).
package services
