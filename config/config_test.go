package config

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestLoadDefaults(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	is.NoErr(c.Load(nil))
	is.Equal(c.EnginePath, "katago")
	is.Equal(c.DefaultVisits, 100)
	is.Equal(c.RequestTimeout, 3*time.Minute)
	is.Equal(c.NatsURL, "")
	is.Equal(c.Debug, false)
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	is.NoErr(c.Load([]string{
		"-engine-path", "/opt/katago/katago",
		"-model-path", "/opt/katago/model.bin.gz",
		"-default-visits", "500",
		"-request-timeout", "30s",
		"-debug",
	}))
	is.Equal(c.EnginePath, "/opt/katago/katago")
	is.Equal(c.ModelPath, "/opt/katago/model.bin.gz")
	is.Equal(c.DefaultVisits, 500)
	is.Equal(c.RequestTimeout, 30*time.Second)
	is.Equal(c.Debug, true)
}
