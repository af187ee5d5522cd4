// Package config provides TOML configuration loading for the satori services
// using Viper. Every service loads exactly one TOML file.
package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load reads the TOML file at path and unmarshals it into out.
//
// Duration fields are decoded from bare integers interpreted as seconds, which
// is the wire convention for every satori configuration file. Go duration
// strings ("90s", "5m") are accepted as well.
func Load(path string, out any) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := v.Unmarshal(out, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		SecondsToDurationHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return fmt.Errorf("decoding config file %s: %w", path, err)
	}

	return nil
}

// SecondsToDurationHookFunc returns a mapstructure decode hook that converts
// integer (and float) config values into time.Duration, treating the raw
// number as a count of seconds.
func SecondsToDurationHookFunc() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))

	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}

		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return time.Duration(reflect.ValueOf(data).Uint()) * time.Second, nil
		case reflect.Float32, reflect.Float64:
			return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
		default:
			return data, nil
		}
	}
}
