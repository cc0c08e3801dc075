package pipeline

// Config sizes the two worker pools.
type Config struct {
	Producers int `yaml:"producers" mapstructure:"producers" validate:"min=1"`
	Consumers int `yaml:"consumers" mapstructure:"consumers" validate:"min=1"`
}
