package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. Struct tag rules (oneof, min,
// max, ...) cover the field-level checks; cross-field rules live in Validate.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for invalid or inconsistent values.
//
// Field-level constraints come from the `validate` struct tags; this function
// adds the cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			ve := verrs[0]
			return fmt.Errorf("invalid value for %s: failed %q rule", ve.Namespace(), ve.Tag())
		}
		return err
	}

	switch cfg.Store.Type {
	case StoreTypeMongo:
		if cfg.Store.URI == "" {
			return errors.New("store.uri is required when store.type is mongo")
		}
		if cfg.Store.Database == "" {
			return errors.New("store.database is required when store.type is mongo")
		}
	case StoreTypeBadger, StoreTypeSQLite:
		if cfg.Store.Path == "" {
			return fmt.Errorf("store.path is required when store.type is %s", cfg.Store.Type)
		}
	case StoreTypePostgres:
		if cfg.Store.DSN == "" {
			return errors.New("store.dsn is required when store.type is postgres")
		}
	}

	if cfg.Bucket.ChunkSize.Int64() > 1<<31-1 {
		return fmt.Errorf("bucket.chunk_size %s exceeds the 2GiB chunk limit", cfg.Bucket.ChunkSize)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint is required when telemetry is enabled")
	}

	return nil
}
