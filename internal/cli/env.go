package cli

import (
	"context"

	"github.com/sethvargo/go-envconfig"

	"github.com/shinji-kodama/ansible-git-inventory/internal/model"
)

// LoadEnvironment reads model.Environment through lookuper. A nil lookuper
// reads the process environment.
func LoadEnvironment(ctx context.Context, lookuper envconfig.Lookuper) (model.Environment, error) {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	var env model.Environment
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: lookuper,
	}); err != nil {
		return model.Environment{}, model.WrapCLIError(model.ExitGeneralError, "invalid environment", err)
	}
	return env, nil
}
