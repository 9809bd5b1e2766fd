package modelcatalog

import (
	"strings"

	"github.com/fbettag/llmdb/internal/config"
	"github.com/fbettag/llmdb/internal/filter"
	"github.com/fbettag/llmdb/internal/provider"
	"github.com/fbettag/llmdb/internal/source"
)

// OptionsFromConfig turns persisted settings into build options. Layers rank packaged data
// lowest, then configured dirs and files, then provider manifests.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	var sources []source.Source
	if cfg.Sources.Packaged {
		sources = append(sources, source.Packaged())
	}
	for _, dir := range cfg.Sources.Dirs {
		sources = append(sources, source.Dir(dir))
	}
	for _, file := range cfg.Sources.Files {
		sources = append(sources, source.File(file))
	}
	manifests, err := config.ProvidersDir()
	if err != nil {
		return Options{}, err
	}
	sources = append(sources, source.Dir(manifests))

	prefer := make([]provider.ID, 0, len(cfg.Prefer))
	for _, p := range cfg.Prefer {
		prefer = append(prefer, provider.ID(strings.ToLower(provider.Normalize(p))))
	}
	return Options{
		Sources: sources,
		Allow:   filter.Only(cfg.Filter.Allow),
		Deny:    cfg.Filter.Deny,
		Prefer:  prefer,
	}, nil
}
