package templates

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-renderpanel/pkg/render"
)

// NoOriginLabel is reported for templates without a resolvable source
// location, such as templates parsed from strings.
const NoOriginLabel = "No origin"

// TemplateInfo describes one captured render in the final report.
type TemplateInfo struct {
	// Name is the loader-relative name the template was rendered under.
	Name string `yaml:"name"`
	// OriginName is the source location display name, or NoOriginLabel.
	OriginName string `yaml:"origin"`
	// Context holds the record's formatted context blocks joined with
	// newlines; empty when context display is disabled.
	Context string `yaml:"context,omitempty"`
}

// Stats is the write-once report handed to the toolbar at the end of one
// request cycle. The UI layer consumes it; it is never mutated afterwards.
type Stats struct {
	Templates         []TemplateInfo `yaml:"templates"`
	TemplateDirs      []string       `yaml:"template_dirs"`
	ContextProcessors []string       `yaml:"context_processors,omitempty"`
}

// GenerateStats assembles the report from the accumulated records and hands
// it to the toolbar stats sink. Engine metadata (search dirs) and the active
// context processors are resolved from the first record only; they are
// stable across the templates of one request.
func (p *Panel) GenerateStats(_ *http.Request) {
	if p == nil {
		return
	}

	showContext := p.toolbar.Config().ShowTemplateContext
	infos := make([]TemplateInfo, 0, len(p.records))
	for _, rec := range p.records {
		info := TemplateInfo{
			Name:       rec.template.Name(),
			OriginName: NoOriginLabel,
		}
		if origin := rec.template.Origin(); origin != "" {
			info.OriginName = origin
		}
		if showContext {
			info.Context = strings.Join(rec.contexts, "\n")
		}
		infos = append(infos, info)
	}

	dirs := []string{}
	var processors []string
	if len(p.records) > 0 {
		first := p.records[0]
		processors = first.processors
		if meta := resolveMetadata(first.template); meta != nil {
			for _, dir := range meta.Dirs() {
				dirs = append(dirs, filepath.Clean(dir))
			}
		}
	}

	p.toolbar.RecordStats(PanelName, Stats{
		Templates:         infos,
		TemplateDirs:      dirs,
		ContextProcessors: processors,
	})
}

// resolveMetadata is polymorphic over the backend kind: native engine
// templates expose Engine, alternate backends expose Backend.
func resolveMetadata(t render.Template) render.Metadata {
	if carrier, ok := t.(render.EngineCarrier); ok {
		if meta := carrier.Engine(); meta != nil {
			return meta
		}
	}
	if carrier, ok := t.(render.BackendCarrier); ok {
		return carrier.Backend()
	}
	return nil
}
