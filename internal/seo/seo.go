// Package seo builds page metadata and schema.org payloads for the
// storefront's rendered pages.
package seo

import "html/template"

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
	JSONLD      []template.JS
}

// ForPage fills in sensible defaults: OG mirrors the page title and
// description unless overridden.
func ForPage(title, description string) Meta {
	return Meta{
		Title:       title,
		Description: description,
		OG: OpenGraph{
			Title:       title,
			Description: description,
			Type:        "website",
		},
	}
}
