package artifact

import (
	"github.com/foxseedlab/koenote/internal/artifact"
	"github.com/foxseedlab/koenote/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (artifact.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewDiskStore(cfg.UploadDir)
	})
}
