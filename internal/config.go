package internal

import "time"

type Config struct {
	BufferSize    int    `env:"BUFFER_SIZE,required=true"`
	LogLevel      string `env:"LOG_LEVEL,required=true"`
	LimitMessages *int   `env:"LIMIT_MESSAGES"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`

	ClassifyTimeout time.Duration `env:"CLASSIFY_TIMEOUT,required=true"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,required=true"`
	RoomRetention   time.Duration `env:"ROOM_RETENTION,required=true"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL,required=true"`

	DebugPort int `env:"DEBUG_PORT,required=true"`
}
