// Package platform holds filesystem helpers shared across services.
package platform
