package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

type localConfig struct {
	Path string `json:"path"`
}

type localLoader struct {
	path string
}

func init() {
	Register("local", createLocalLoader)
}

func createLocalLoader(args interface{}) (Loader, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("local source path is required")
	}
	return &localLoader{path: cfg.Path}, nil
}

func (l *localLoader) Name() string {
	return "local:" + l.path
}

func (l *localLoader) Load(ctx context.Context) (string, error) {
	_ = ctx
	raw, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", l.path, ErrSourceNotFound)
		}
		return "", err
	}
	return string(raw), nil
}
