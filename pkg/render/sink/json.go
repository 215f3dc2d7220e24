package sink

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/taxotree/pkg/cache"
	"github.com/matzehuels/taxotree/pkg/render"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	patch   *render.Patch
	outcome string
	indent  bool
}

// WithPatch includes the patch that produced the scene.
func WithPatch(p render.Patch) JSONOption { return func(r *jsonRenderer) { r.patch = &p } }

// WithOutcome records the outcome of the click that produced the scene.
func WithOutcome(o string) JSONOption { return func(r *jsonRenderer) { r.outcome = o } }

// WithIndent pretty-prints the output.
func WithIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

type jsonOutput struct {
	Direction string        `json:"direction"`
	Outcome   string        `json:"outcome,omitempty"`
	Scene     render.Scene  `json:"scene"`
	Patch     *render.Patch `json:"patch,omitempty"`
}

// RenderJSON exports scene for the browser client.
func RenderJSON(scene render.Scene, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{
		Direction: scene.Direction.String(),
		Outcome:   r.outcome,
		Scene:     scene,
		Patch:     r.patch,
	}
	if out.Scene.Nodes == nil {
		out.Scene.Nodes = []render.Node{}
	}
	if out.Scene.Edges == nil {
		out.Scene.Edges = []render.Edge{}
	}
	if out.Scene.ExtraEdges == nil {
		out.Scene.ExtraEdges = []render.Edge{}
	}

	if r.indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// Digest identifies the drawable content of scene. Equal scenes in the same
// direction have equal digests. It fails when the scene cannot be encoded,
// for example on a NaN coordinate.
func Digest(scene render.Scene) (string, error) {
	data, err := RenderJSON(scene)
	if err != nil {
		return "", fmt.Errorf("digest scene: %w", err)
	}
	return cache.Hash(data), nil
}
