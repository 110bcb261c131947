package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=3000"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	UploadsDir     string `env:"UPLOADS_DIR,default=uploads"`

	LogLevel string `env:"LOG_LEVEL,default=info"`

	SendBufferSize int   `env:"SEND_BUFFER_SIZE,default=256"`
	MaxMessageSize int64 `env:"MAX_MESSAGE_SIZE,default=65536"`
	LimitMessages  *int  `env:"LIMIT_MESSAGES"`
	SearchLimit    int   `env:"SEARCH_LIMIT,default=20"`

	ModerationEnabled bool   `env:"MODERATION_ENABLED,default=false"`
	CensoredWordsPath string `env:"CENSORED_WORDS_PATH"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`

	MetricInterval    time.Duration `env:"METRIC_INTERVAL,default=15s"`
	StorageGCInterval time.Duration `env:"STORAGE_GC_INTERVAL,default=5m"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
