package components

import (
	"careslot/internal/infra/readstore"
	repo_impl "careslot/internal/infra/repository"
	"careslot/internal/infra/uow"
	"careslot/internal/pkg/config"
	"careslot/internal/usecase/commands"
	"careslot/internal/usecase/queries"
	"careslot/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			NewUnitOfWork,
			fx.As(new(shared.UnitOfWork)),
		),
		fx.Annotate(
			repo_impl.NewPoolRepository,
			fx.As(new(commands.PoolRepository)),
		),
		fx.Annotate(
			repo_impl.NewBookingRepository,
			fx.As(new(commands.BookingRepository)),
		),
		fx.Annotate(
			repo_impl.NewWaitlistRepository,
			fx.As(new(commands.WaitlistRepository)),
		),
		fx.Annotate(
			repo_impl.NewResourceRepository,
			fx.As(new(commands.ResourceRepository)),
		),
		fx.Annotate(
			repo_impl.NewNotificationRepository,
			fx.As(new(commands.NotificationRepository)),
		),
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(queries.BookingReadStore)),
		),
	),
)

func NewUnitOfWork(pool *pgxpool.Pool, cfg config.Config) *uow.PostgresUoW {
	return uow.NewPostgresUoW(pool, cfg.Booking.TxMaxRetries)
}
