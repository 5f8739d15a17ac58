package account

import (
	"github.com/foxseedlab/koenote/internal/config"
	"github.com/foxseedlab/koenote/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		return NewService(repo, cfg.DefaultLanguage), nil
	})
}
