package config

import "time"

type Config struct {
	// General configuration
	Env string `yaml:"env" mapstructure:"env" validate:"required,oneof=development staging production test"`
	Log Log    `yaml:"log" mapstructure:"log" validate:"required"`
	App App    `yaml:"app" mapstructure:"app" validate:"required"`

	// Upload negotiation
	Upload Upload `yaml:"upload" mapstructure:"upload" validate:"required"`

	// Infrastructure components
	Objectstore Objectstore `yaml:"objectstore" mapstructure:"objectstore" validate:"required"`
}

type App struct {
	Name    string `yaml:"name" mapstructure:"name" validate:"required"`
	Address string `yaml:"address" mapstructure:"address" validate:"required"`
	// PublicURL is the externally reachable base of this server, used to mint part upload addresses.
	PublicURL string `yaml:"publicUrl" mapstructure:"publicUrl" validate:"required,url"`
}

type Log struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format    string `yaml:"format" mapstructure:"format" validate:"oneof=json text"`
	AddSource bool   `yaml:"addSource" mapstructure:"addSource"`
}

type Upload struct {
	// PartSize is the minimum part size handed to clients, in bytes.
	PartSize int64 `yaml:"partSize" mapstructure:"partSize" validate:"required,gte=1"`
	MaxParts int   `yaml:"maxParts" mapstructure:"maxParts" validate:"required,gte=1,lte=10000"`
	// KeyPrefix is prepended to generated object keys.
	KeyPrefix string `yaml:"keyPrefix" mapstructure:"keyPrefix"`
	// RequestTimeout bounds every negotiation request handled by the server.
	RequestTimeout time.Duration `yaml:"requestTimeout" mapstructure:"requestTimeout" validate:"gte=0"`
}

type Objectstore struct {
	Type  string `yaml:"type" mapstructure:"type" validate:"required,oneof=local storj"`
	Local Local  `yaml:"local" mapstructure:"local"`
	Storj Storj  `yaml:"storj" mapstructure:"storj"`
}

type Local struct {
	Root string `yaml:"root" mapstructure:"root"`
}

type Storj struct {
	AccessGrant string `yaml:"accessGrant" mapstructure:"accessGrant"`
	Bucket      string `yaml:"bucket" mapstructure:"bucket"`
}
