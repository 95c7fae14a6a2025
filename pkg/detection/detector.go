// Package detection scores which frameworks a project uses from weighted
// evidence and applies priority based suppression.
package detection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/danny/pkg/errors"
	"github.com/arthur-debert/danny/pkg/logging"
	"github.com/arthur-debert/danny/pkg/rules"
)

// Evidence is one matched detection rule
type Evidence struct {
	Framework string  `json:"framework"`
	Rule      string  `json:"rule"`
	Weight    float64 `json:"weight"`
	Context   string  `json:"context,omitempty"`
}

// Result is the detection outcome for one framework.
// Confidence is the sum of evidence weights capped at 1.0.
type Result struct {
	Framework  string     `json:"framework"`
	Confidence float64    `json:"confidence"`
	Evidence   []Evidence `json:"evidence"`
}

type framework struct {
	name       string
	priority   uint32
	suppresses []string
	rules      []*compiledRule
}

// Detector holds compiled detection rules per framework. It is immutable
// after construction and safe for concurrent use.
type Detector struct {
	frameworks []*framework
	byName     map[string]*framework
}

// New compiles the detection rules of every framework. A later framework
// with the same name replaces an earlier one.
func New(frameworks []rules.FrameworkMetadata) (*Detector, error) {
	d := &Detector{byName: make(map[string]*framework)}
	for _, meta := range frameworks {
		fw := &framework{
			name:       meta.Name,
			priority:   meta.PriorityValue(),
			suppresses: meta.Suppresses,
		}
		for i, r := range meta.Detection {
			c, err := compileRule(r)
			if err != nil {
				return nil, errors.Wrapf(err, errors.GetErrorCode(err), "framework %s: detection rule %d", meta.Name, i).
					WithDetail(errors.DetailFramework, meta.Name)
			}
			fw.rules = append(fw.rules, c)
		}

		if prev, ok := d.byName[meta.Name]; ok {
			logger := logging.GetLogger("detection")
			logger.Debug().Str("framework", meta.Name).Msg("Framework redefined, replacing")
			for i, f := range d.frameworks {
				if f == prev {
					d.frameworks[i] = fw
				}
			}
		} else {
			d.frameworks = append(d.frameworks, fw)
		}
		d.byName[meta.Name] = fw
	}
	return d, nil
}

// FromFiles builds a detector from the framework sections of rule files.
// Files without a framework section are ignored.
func FromFiles(files []*rules.File) (*Detector, error) {
	var metas []rules.FrameworkMetadata
	for _, f := range files {
		if f.Framework != nil {
			metas = append(metas, *f.Framework)
		}
	}
	return New(metas)
}

// Frameworks returns the known framework names in definition order
func (d *Detector) Frameworks() []string {
	names := make([]string, len(d.frameworks))
	for i, f := range d.frameworks {
		names[i] = f.name
	}
	return names
}

// DetectFromImports matches import sources against import rules
func (d *Detector) DetectFromImports(imports []string) []Result {
	return d.Finalize(d.importEvidence(imports))
}

// DetectFromExports matches export names against export_pattern rules
func (d *Detector) DetectFromExports(exports []string) []Result {
	return d.Finalize(d.exportEvidence(exports))
}

// DetectFromPath matches a file path against file_path and file_extension rules
func (d *Detector) DetectFromPath(path string) []Result {
	return d.Finalize(d.pathEvidence(path))
}

// DetectFromPackageJSON matches dependency names and script bodies
func (d *Detector) DetectFromPackageJSON(dependencies, scripts map[string]string) []Result {
	return d.Finalize(d.packageEvidence(dependencies, scripts))
}

func (d *Detector) importEvidence(imports []string) []Evidence {
	var ev []Evidence
	for _, fw := range d.frameworks {
		for _, r := range fw.rules {
			if r.rule.Type != rules.DetectImport {
				continue
			}
			for _, imp := range imports {
				if r.matchesString(imp) {
					ev = append(ev, Evidence{Framework: fw.name, Rule: r.id(), Weight: r.weight, Context: "import: " + imp})
				}
			}
		}
	}
	return ev
}

func (d *Detector) exportEvidence(exports []string) []Evidence {
	var ev []Evidence
	for _, fw := range d.frameworks {
		for _, r := range fw.rules {
			if r.rule.Type != rules.DetectExportPattern {
				continue
			}
			for _, name := range exports {
				if r.matchesString(name) {
					ev = append(ev, Evidence{Framework: fw.name, Rule: r.id(), Weight: r.weight, Context: "export: " + name})
				}
			}
		}
	}
	return ev
}

func (d *Detector) pathEvidence(path string) []Evidence {
	var ev []Evidence
	for _, fw := range d.frameworks {
		for _, r := range fw.rules {
			if r.matchesPath(path) {
				ev = append(ev, Evidence{Framework: fw.name, Rule: r.id(), Weight: r.weight, Context: "path: " + path})
			}
		}
	}
	return ev
}

func (d *Detector) packageEvidence(dependencies, scripts map[string]string) []Evidence {
	var ev []Evidence
	for _, fw := range d.frameworks {
		for _, r := range fw.rules {
			matched := false
			switch r.rule.Type {
			case rules.DetectPackageDependency:
				_, matched = dependencies[r.rule.Pattern]
			case rules.DetectPackageScript:
				for _, script := range scripts {
					if strings.Contains(script, r.rule.Pattern) {
						matched = true
						break
					}
				}
			default:
				continue
			}
			if matched {
				ev = append(ev, Evidence{Framework: fw.name, Rule: r.id(), Weight: r.weight, Context: "package.json: " + r.rule.Pattern})
			}
		}
	}
	return ev
}

// Finalize groups evidence by framework, sums and caps confidence, drops
// frameworks suppressed by any detected framework, and sorts by priority
// descending, confidence descending, then name ascending.
func (d *Detector) Finalize(evidence []Evidence) []Result {
	byFramework := make(map[string]*Result)
	var order []string
	for _, e := range evidence {
		res, ok := byFramework[e.Framework]
		if !ok {
			res = &Result{Framework: e.Framework}
			byFramework[e.Framework] = res
			order = append(order, e.Framework)
		}
		res.Evidence = append(res.Evidence, e)
	}

	suppressed := make(map[string]bool)
	for _, name := range order {
		if fw, ok := d.byName[name]; ok {
			for _, s := range fw.suppresses {
				suppressed[s] = true
			}
		}
	}

	logger := logging.GetLogger("detection")
	results := make([]Result, 0, len(order))
	for _, name := range order {
		if suppressed[name] {
			logger.Debug().Str("framework", name).Msg("Framework suppressed")
			continue
		}
		res := byFramework[name]
		total := 0.0
		for _, e := range res.Evidence {
			total += e.Weight
		}
		if total > 1.0 {
			total = 1.0
		}
		res.Confidence = total
		results = append(results, *res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		pi, pj := d.priority(results[i].Framework), d.priority(results[j].Framework)
		if pi != pj {
			return pi > pj
		}
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Framework < results[j].Framework
	})
	return results
}

func (d *Detector) priority(name string) uint32 {
	if fw, ok := d.byName[name]; ok {
		return fw.priority
	}
	return 0
}

func (r Result) String() string {
	return fmt.Sprintf("%s (%.2f, %d evidence)", r.Framework, r.Confidence, len(r.Evidence))
}
