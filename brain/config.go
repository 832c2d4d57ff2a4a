package brain

import (
	"os"
	"path/filepath"

	"github.com/reusee/minion/configs"
	"github.com/reusee/minion/vars"
)

// ConfigSchema is the CUE schema string brain config files validate
// against. Empty means no schema validation.
var ConfigSchema = ""

// DiscoverConfigPaths returns the config file search order spec §4.8
// names: project config file (<name>.cue in the working directory) →
// user config file (os.UserConfigDir()/minion/<name>.cue) → /etc
// (/etc/minion/<name>.cue), keeping only paths that exist. Later entries are lower priority —
// configs.Loader.AssignFirst stops at the first root where the path
// resolves, so callers pass this slice in discovery order. Grounded on
// the teacher's taiconfigs.ConfigsLoader path-discovery order (deleted in
// this module — see DESIGN.md — but its search order is preserved here
// against package configs directly).
func DiscoverConfigPaths(name string) []string {
	var paths []string

	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, name+".cue"))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "minion", name+".cue"))
	}
	paths = append(paths, filepath.Join("/etc/minion", name+".cue"))

	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	return existing
}

// Config is the top-level shape a project/user/system config file may
// declare: named model aliases plus a default route/provider, mirroring
// spec §4.8's "model registry is a mapping from model alias -> provider
// descriptor".
type Config struct {
	Models          []ProviderSpec `json:"models"`
	DefaultProvider string         `json:"default_provider"`
	DefaultRoute    string         `json:"default_route"`
}

// LoadConfig resolves configuration from the discovered file set, with
// ${VAR} environment interpolation applied to every string value (spec
// §4.8). Explicit constructor arguments always win over what this
// returns — callers apply LoadConfig's result first, then override
// fields the caller was given directly.
func LoadConfig(envFiles []string) (Config, error) {
	if err := configs.LoadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}
	paths := DiscoverConfigPaths("config")
	if len(paths) == 0 {
		return Config{}, nil
	}
	loader := configs.NewLoader(paths, ConfigSchema)
	return configs.First[Config](loader, ""), nil
}

// ApplyConfig registers every model alias a Config declares and sets the
// Brain's default provider/route, skipping any field the Brain already
// has set explicitly (constructor arguments win, per spec §4.8).
func (b *Brain) ApplyConfig(cfg Config) {
	for _, spec := range cfg.Models {
		b.Models.RegisterAlias(spec)
	}
	b.DefaultProvider = vars.FirstNonZero(b.DefaultProvider, cfg.DefaultProvider)
	if b.DefaultRoute == "moderator" {
		// "moderator" is New's own default, not a caller's explicit choice,
		// so a config-declared route is still allowed to win here.
		b.DefaultRoute = vars.FirstNonZero(cfg.DefaultRoute, b.DefaultRoute)
	} else {
		b.DefaultRoute = vars.FirstNonZero(b.DefaultRoute, cfg.DefaultRoute)
	}
}
