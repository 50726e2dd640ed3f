package kit

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LoadTrio reads the child's and both parents' kits concurrently. A parent
// with an empty path is left empty. A parent kit that cannot be read is
// logged and left empty; an unreadable child kit is an error.
func LoadTrio(ctx context.Context, childPath, motherPath, fatherPath string, logger *zap.Logger) (*Trio, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if childPath == "" {
		return nil, errors.New("child kit is required")
	}

	paths := [3]string{childPath, motherPath, fatherPath}
	var kits [3]*Kit
	var errs [3]error

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if path == "" {
				kits[i] = New()
				return nil
			}
			k, err := Load(path, logger)
			if err != nil {
				errs[i] = err
				kits[i] = New()
				return nil
			}
			kits[i] = k
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if errs[0] != nil {
		return nil, fmt.Errorf("read child kit: %w", errs[0])
	}
	for i, role := range []string{"child", "mother", "father"} {
		if paths[i] == "" {
			continue
		}
		if errs[i] != nil {
			logger.Warn("could not read kit; continuing without it",
				zap.String("role", role), zap.String("file", paths[i]), zap.Error(errs[i]))
			continue
		}
		logger.Info("read kit", zap.String("role", role), zap.String("file", paths[i]), zap.Int("positions", kits[i].Len()))
	}

	return &Trio{Child: kits[0], Mother: kits[1], Father: kits[2]}, nil
}
