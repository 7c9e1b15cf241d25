// Package uidex aggregates UI-component metadata crawled from a fixed set
// of source sites into a normalized, searchable catalog. It owns crawl
// orchestration, content-addressed deduplication, and ranked search; the
// HTTP/CRUD layer and preview rendering are external collaborators.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, crawl/).
package uidex
