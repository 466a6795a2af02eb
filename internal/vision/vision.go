// Package vision provides optional photo-based form prefill: given an item
// photo, an analyzer guesses what it shows so the add-item form can start
// filled in. The guess is advisory; nothing in the CRUD flow depends on it.
package vision

import (
	"context"
	"io"
)

// SuggestPrompt is the shared prompt used by all vision adapters.
const SuggestPrompt = `This photo shows one piece of MLB merchandise: either a hat (cap) or a jersey.
Identify it and respond with a single JSON object, no other text, with these
string fields: "kind" ("hat" or "jersey"), "team" (full franchise name,
e.g. "Los Angeles Dodgers"), "player" (name on the jersey, empty for hats),
"color_design" (short description of colors and design). Use an empty string
for anything you cannot tell.`

type Analyzer interface {
	Suggest(ctx context.Context, r io.Reader, mimeType string) (*Suggestion, error)
}

// Suggestion is the model's guess at the form fields. Any field may be empty.
type Suggestion struct {
	Kind        string `json:"kind"`
	Team        string `json:"team"`
	Player      string `json:"player"`
	ColorDesign string `json:"color_design"`
	RawResponse string `json:"-"`
}
