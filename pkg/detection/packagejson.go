package detection

import (
	"encoding/json"

	"github.com/arthur-debert/danny/pkg/errors"
)

// PackageJSON is the subset of package.json used for detection
type PackageJSON struct {
	Name                 string            `json:"name"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	Scripts              map[string]string `json:"scripts"`
}

// ParsePackageJSON decodes package.json content
func ParsePackageJSON(data []byte) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, errors.Wrap(err, errors.ErrParse, "invalid package.json")
	}
	return &pkg, nil
}

// AllDependencies merges every dependency section. Regular dependencies
// win over dev, peer and optional ones for the version string.
func (p *PackageJSON) AllDependencies() map[string]string {
	all := make(map[string]string)
	for _, section := range []map[string]string{
		p.OptionalDependencies, p.PeerDependencies, p.DevDependencies, p.Dependencies,
	} {
		for k, v := range section {
			all[k] = v
		}
	}
	return all
}

// DetectFromPackage is DetectFromPackageJSON over a parsed package.json
func (d *Detector) DetectFromPackage(pkg *PackageJSON) []Result {
	if pkg == nil {
		return nil
	}
	return d.DetectFromPackageJSON(pkg.AllDependencies(), pkg.Scripts)
}
