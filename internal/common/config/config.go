package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken    string  `env:"BOT_TOKEN,required"`
		BotUsername string  `env:"BOT_USERNAME,required"`
		AdminIDs    []int64 `env:"ADMIN_IDS" envSeparator:","`
		PollTimeout int     `env:"POLL_TIMEOUT_SEC" envDefault:"30"`
	}

	Content struct {
		DefaultCategory string `env:"DEFAULT_CATEGORY" envDefault:"general"`
		VideosPerGrant  int    `env:"VIDEOS_PER_GRANT" envDefault:"20"`
	}

	Shortener struct {
		APIURL string `env:"SHORTENER_API_URL" envDefault:""`
		// Links shorter than MinLength are served as-is.
		MinLength  int `env:"SHORTENER_MIN_LENGTH" envDefault:"40"`
		TimeoutSec int `env:"SHORTENER_TIMEOUT_SEC" envDefault:"5"`
	}
}

func Load() *Config {
	// A missing .env file is fine; in production the variables are set
	// directly in the environment.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}

// IsAdmin reports whether the given Telegram ID is in the configured admin set.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
