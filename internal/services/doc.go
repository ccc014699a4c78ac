// Package services holds cross-cutting helpers for the provider-facing
// clients: the sentinel error taxonomy, retry classification, and backoff
// timing shared by transcription and translation.
package services
