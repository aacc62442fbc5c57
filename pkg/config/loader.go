package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu      sync.Mutex
	cache   = make(map[reflect.Type]any)
	envOnce sync.Once
)

// LoadEnv loads the given .env files into the process environment. Existing
// variables are not overwritten. With no arguments it loads ./.env.
// Calling LoadEnv marks the default .env as handled, so Load will not read it again.
func LoadEnv(files ...string) error {
	var err error
	envOnce.Do(func() {})
	if loadErr := godotenv.Load(files...); loadErr != nil {
		err = errors.Join(ErrLoadingEnvFile, loadErr)
	}
	return err
}

// Load parses environment variables into v. The first successful parse of a type
// is cached and every later call for the same type receives a copy of it.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	envOnce.Do(func() {
		// .env is optional
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]()

	mu.Lock()
	defer mu.Unlock()

	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	cache[key] = parsed
	*v = parsed
	return nil
}

// MustLoad works like Load but panics on failure. Use it for configuration the
// process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration %s: %v", reflect.TypeFor[T](), err))
	}
}

// Reset clears cached configurations so the next Load re-reads the environment.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	clear(cache)
}
