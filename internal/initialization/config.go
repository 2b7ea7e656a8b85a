package initialization

import (
	"fmt"
	"strings"

	"github.com/flowdeck/flowdeck/pkg/connectors"
	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/storage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the full engine configuration: the HTTP listen address, the
// backing stores, the collaborator connectors and the engine limits.
type Config struct {
	HTTPAddress string `mapstructure:"http_address"`

	Redis connectors.RedisConfig `mapstructure:"redis"`
	Mongo storage.MongoConfig    `mapstructure:"mongo"`

	PostgresDSN string `mapstructure:"postgres_dsn"`

	Warehouse  connectors.WarehouseConfig  `mapstructure:"warehouse"`
	Completion connectors.CompletionConfig `mapstructure:"completion"`

	APIQueryEndpoint string `mapstructure:"api_query_endpoint"`
	APIQueryKey      string `mapstructure:"api_query_key"`

	VectorDatabase   string `mapstructure:"vector_database"`
	VectorCollection string `mapstructure:"vector_collection"`
	VectorIndex      string `mapstructure:"vector_index"`

	Engine domain.EngineConfig `mapstructure:"engine"`

	Schedules []ScheduleConfig `mapstructure:"schedules"`
}

// ScheduleConfig points a cron spec at a workflow definition file. Loaded
// schedules run as committed sessions.
type ScheduleConfig struct {
	Name string `mapstructure:"name"`
	Spec string `mapstructure:"spec"`
	File string `mapstructure:"file"`
}

// LoadConfig reads configuration from flowdeck.yaml (working directory,
// ./config, $HOME/.flowdeck) and FLOWDECK_* environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FLOWDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("flowdeck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.flowdeck")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_address", ":8080")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "flowdeck")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("vector_database", "flowdeck")
	v.SetDefault("vector_collection", "documents")
	v.SetDefault("vector_index", "default")

	defaults := domain.DefaultEngineConfig()
	v.SetDefault("engine.query_timeout", defaults.QueryTimeout)
	v.SetDefault("engine.completion_timeout", defaults.CompletionTimeout)
	v.SetDefault("engine.http_timeout", defaults.HTTPTimeout)
	v.SetDefault("engine.search_timeout", defaults.SearchTimeout)
	v.SetDefault("engine.max_query_rows", defaults.MaxQueryRows)
	v.SetDefault("engine.max_loop_iterations", defaults.MaxLoopIterations)
	v.SetDefault("engine.default_search_limit", defaults.DefaultSearchLimit)
}
