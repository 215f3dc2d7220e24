package cache

// ArtifactKeyOpts are the render settings that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format      string `json:"format"`
	Labels      bool   `json:"labels"`
	Interactive bool   `json:"interactive"`
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey returns the key of the artifact rendered from the scene
	// with hash sceneHash.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes every key component.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}
