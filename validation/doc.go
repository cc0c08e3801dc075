// Package validation checks configuration and input structs.
//
// Struct tags are evaluated with go-playground/validator; field names in
// messages follow the mapstructure tag so they match the config file keys.
// A custom "dimensions" tag accepts strings of the form "<width>x<height>".
//
//	type Config struct {
//	    Producers int    `mapstructure:"producers" validate:"min=1"`
//	    Size      string `mapstructure:"size" validate:"required,dimensions"`
//	}
//	err := validation.Validate(cfg)
//
// Checks that tags cannot express go through the programmatic Validator:
//
//	v := validation.New()
//	v.Custom(cfg.Consumers <= 64*cfg.Producers, "consumers", "is out of proportion")
//	if err := v.Validate(); err != nil { ... }
package validation
