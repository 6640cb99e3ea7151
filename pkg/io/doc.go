// Package io reads and writes GridLookout schemas and resolved layouts.
//
// # Overview
//
// Schemas can be authored in JSON, YAML or TOML. All three carry the same
// document shape:
//
//	{
//	  "layers": [
//	    {
//	      "name": "MainLayer",
//	      "viewport": {"width": 600, "height": 800},
//	      "cells": {
//	        "header":  {"startX": 0,   "startY": 0,   "width": 1,   "height": 0.1, "content": "Header"},
//	        "sidebar": {"startX": 0,   "startY": 0.1, "width": 0.2, "height": 0.9, "content": "Sidebar"},
//	        "main":    {"startX": 0.2, "startY": 0.1, "width": 0.8, "height": 0.9, "content": "Main"}
//	      }
//	    }
//	  ]
//	}
//
// # Decoding Rules
//
// The decoders are deliberately permissive about geometry and strict about
// syntax. They never validate; validation belongs to layout.Validate, which
// reports every problem with a layer/cell/field location:
//
//   - The order of the cells mapping is preserved.
//   - Duplicated cell keys in JSON and YAML are preserved, so validation can
//     report them as SCHEMA_STRUCTURE instead of one silently winning.
//     (TOML rejects duplicate keys at the syntax level.)
//   - A missing numeric field decodes as NaN and is reported by validation
//     as a non-finite value.
//   - Syntax errors and wrongly typed values are INVALID_FORMAT errors.
//
// JSON is decoded with github.com/goccy/go-json, YAML with gopkg.in/yaml.v3
// and TOML with github.com/BurntSushi/toml.
//
// # Layout Format
//
// Resolved layouts are exported as JSON with ordered layers and cells:
//
//	{
//	  "units": "px",
//	  "layers": [
//	    {
//	      "name": "MainLayer",
//	      "viewport": {"width": 600, "height": 800},
//	      "cells": [
//	        {"name": "header", "content": "Header", "x": 0, "y": 0, "width": 600, "height": 80}
//	      ]
//	    }
//	  ]
//	}
//
// [MarshalLayout] output is deterministic for a given layout, which makes it
// suitable for cache entries and golden files.
package io
