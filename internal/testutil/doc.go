// Package testutil provides shared helpers for constructing definition
// trees and other fixtures used across the project's tests.
//
// The helpers are intentionally minimal and avoid adding third-party
// dependencies beyond what the tests already use.
package testutil
