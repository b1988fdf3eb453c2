package gen

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Runner drives the loader and generator over package directories and
// writes the resulting companion files next to their sources.
type Runner struct {
	Suffix string
	DryRun bool
	Logger *zap.Logger
}

// Run processes each directory in turn. Directories without annotated
// types produce no files.
func (r *Runner) Run(dirs []string) error {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loader := &Loader{Suffix: r.Suffix}
	generator := &Generator{Suffix: r.Suffix, Logger: logger}
	for _, dir := range dirs {
		pkg, err := loader.Load(dir)
		if err != nil {
			return fmt.Errorf("load %s: %w", dir, err)
		}
		files, err := generator.Generate(pkg)
		if err != nil {
			return fmt.Errorf("generate %s: %w", dir, err)
		}
		for _, file := range files {
			path := filepath.Join(dir, file.Name)
			if r.DryRun {
				logger.Info("would write companion",
					zap.String("path", path),
					zap.Int("bytes", len(file.Content)))
				continue
			}
			if err := os.WriteFile(path, file.Content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			logger.Info("wrote companion",
				zap.String("path", path),
				zap.Int("bytes", len(file.Content)))
		}
	}
	return nil
}
