package capture

import (
	"github.com/foxseedlab/koenote/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		return NewManager(config.MaxCaptureSeconds), nil
	})
}
