package config

import (
	"time"

	"github.com/namsral/flag"
)

type Config struct {
	EnginePath       string
	ModelPath        string
	EngineConfigPath string
	ListenAddr       string
	NatsURL          string
	BotChannel       string
	DefaultVisits    int
	RequestTimeout   time.Duration
	Debug            bool
}

func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("katabroker", flag.ContinueOnError)
	fs.StringVar(&c.EnginePath, "engine-path", "katago", "path to the katago binary")
	fs.StringVar(&c.ModelPath, "model-path", "default_model.bin", "path to the katago model file")
	fs.StringVar(&c.EngineConfigPath, "engine-config-path", "analysis.cfg", "path to the katago analysis config file")
	fs.StringVar(&c.ListenAddr, "listen-addr", ":8080", "address for the HTTP server to listen on")
	fs.StringVar(&c.NatsURL, "nats-url", "", "NATS server URL; leave empty to disable the NATS listener")
	fs.StringVar(&c.BotChannel, "bot-channel", "katabroker.analyze", "NATS subject to subscribe to")
	fs.IntVar(&c.DefaultVisits, "default-visits", 100, "visit budget used when a request does not specify one")
	fs.DurationVar(&c.RequestTimeout, "request-timeout", 3*time.Minute, "deadline for a single analysis request")
	fs.BoolVar(&c.Debug, "debug", false, "enable debug logging")
	err := fs.Parse(args)
	return err
}
