package migration

import "go.trai.ch/wdlcache/internal/core/domain"

var (
	Upgrade0_9 = upgrade0_9
	Upgrade1_0 = upgrade1_0
)

func (e *Engine) AppendHistory(record domain.MigrationRecord) error {
	return e.appendHistory(record)
}
