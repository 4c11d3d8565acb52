package config

import (
	"strings"

	"github.com/abgdnv/online-orders/pkg/config"
	"github.com/abgdnv/online-orders/pkg/config/configloader"
)

var _ configloader.Validator = (*FunctionConfig)(nil)

// FunctionConfig is the configuration of the single-purpose serverless
// entrypoints, which only talk to the database.
type FunctionConfig struct {
	Database config.DatabaseConfig `koanf:"database"`
	Log      config.LogConfig      `koanf:"log"`
}

func (c *FunctionConfig) String() string {
	var b strings.Builder
	b.WriteString(c.Database.String())
	b.WriteString(c.Log.String())
	return b.String()
}

func (c *FunctionConfig) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
