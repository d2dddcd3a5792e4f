package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/postbot/internal/app"
)

// envPrefix marks variables read as configuration. Double underscores nest:
// POSTBOT_OAUTH__CLIENT_ID sets oauth.client_id.
const envPrefix = "POSTBOT_"

// loadConfig merges configuration sources, later ones overriding earlier ones:
// config file, environment, CLI flags. Unset fields then receive defaults and
// the result is validated.
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string) (*app.Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: envKey,
		EnvironFunc:   environFunc,
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	if cmd != nil {
		if err := k.Load(confmap.Provider(flagValues(cmd), "."), nil); err != nil {
			return nil, fmt.Errorf("loading CLI flags: %w", err)
		}
	}

	cfg := &app.Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// listKeys are config paths holding lists, given in the environment as comma-separated values.
var listKeys = map[string]bool{
	"oauth.scopes": true,
	"bot.topics":   true,
	"bot.creators": true,
}

// envKey maps POSTBOT_STORAGE__SQLITE_PATH to storage.sqlite_path.
// POSTBOT_BOT__CREATORS=12,34 becomes the list [12 34].
func envKey(key, value string) (string, any) {
	key = strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, envPrefix), "__", "."))
	if !listKeys[key] {
		return key, value
	}

	items := []string{}
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// flagValues collects explicitly set flags, including those of parent commands,
// keyed by config path: --server--port becomes server.port, --log-level becomes log_level.
func flagValues(cmd *cli.Command) map[string]any {
	values := make(map[string]any)

	for _, name := range cmd.FlagNames() {
		// Defaults come from ApplyDefaults so they never shadow file or env values
		if !cmd.IsSet(name) {
			continue
		}

		value := cmd.Value(name)
		if value == nil {
			continue
		}

		key := strings.ReplaceAll(name, "--", ".")
		values[strings.ReplaceAll(key, "-", "_")] = value
	}

	return values
}
