package di

import (
	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/clientdata"
	"github.com/skylease/watchtower/internal/modules/airlines"
	"github.com/skylease/watchtower/internal/modules/portfolio"
	"github.com/skylease/watchtower/internal/modules/snapshots"
)

// InitializeRepositories creates the data access layer.
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	container.AirlineRepo = airlines.NewRepository(container.FleetDB.Conn(), log)
	container.ExposureRepo = portfolio.NewExposureRepository(container.PortfolioDB.Conn(), log)
	container.SnapshotRepo = snapshots.NewRepository(container.PortfolioDB.Conn(), log)
	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())

	return nil
}
