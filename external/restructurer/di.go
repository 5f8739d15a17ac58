package restructurer

import (
	"github.com/foxseedlab/koenote/internal/config"
	"github.com/foxseedlab/koenote/internal/restructurer"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (restructurer.Restructurer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewAnthropicRestructurer(AnthropicConfig{
			APIKey: c.AnthropicAPIKey,
			Model:  c.AnthropicModel,
		}), nil
	})
}
