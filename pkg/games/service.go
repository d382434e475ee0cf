package games

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gamedex/gamedex/pkg/errcodes"
	"github.com/gamedex/gamedex/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// bulkInsertChunkSize keeps a single INSERT well under SQLite's bound
// parameter limit.
const bulkInsertChunkSize = 100

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type RetrieveGameOptions struct {
	ID *int
}

type ListGamesOptions struct {
	Name     *string
	Platform *string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateGame(ctx context.Context, game *models.Game) error {
	now := time.Now()
	game.ID = 0
	game.CreatedAt = now
	game.UpdatedAt = now

	_, err := svc.db.
		NewInsert().
		Model(game).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

// BulkCreateGames inserts every game in one transaction, so either all of
// them are stored or none are.
func (svc *Service) BulkCreateGames(ctx context.Context, games []*models.Game) error {
	if len(games) == 0 {
		return nil
	}

	now := time.Now()
	for _, game := range games {
		game.ID = 0
		game.CreatedAt = now
		game.UpdatedAt = now
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for start := 0; start < len(games); start += bulkInsertChunkSize {
			end := min(start+bulkInsertChunkSize, len(games))
			chunk := games[start:end]
			_, err := tx.NewInsert().
				Model(&chunk).
				Returning("*").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		// Earlier chunks were rolled back, so their returned ids don't exist.
		for _, game := range games {
			game.ID = 0
		}
		return errors.WithStack(err)
	}
	return nil
}

func (svc *Service) RetrieveGame(ctx context.Context, opts RetrieveGameOptions) (*models.Game, error) {
	game := &models.Game{}

	q := svc.db.
		NewSelect().
		Model(game)

	if opts.ID != nil {
		q = q.Where("g.id = ?", *opts.ID)
	}

	err := q.Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Game")
		}
		return nil, errors.WithStack(err)
	}

	return game, nil
}

// ListGames returns the games matching opts. A nil Name or Platform does not
// filter; both together are combined with AND.
func (svc *Service) ListGames(ctx context.Context, opts ListGamesOptions) ([]*models.Game, error) {
	games := []*models.Game{}

	q := svc.db.
		NewSelect().
		Model(&games).
		Order("g.id ASC")

	if opts.Name != nil && *opts.Name != "" {
		q = q.Where(`g.name LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(*opts.Name)+"%")
	}
	if opts.Platform != nil && *opts.Platform != "" {
		q = q.Where("g.platform = ?", *opts.Platform)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return games, nil
}

// UpdateGame overwrites every mutable field of the stored game with the ones
// in fields. Omitted fields are not merged.
func (svc *Service) UpdateGame(ctx context.Context, id int, fields *models.Game) (*models.Game, error) {
	game, err := svc.RetrieveGame(ctx, RetrieveGameOptions{ID: &id})
	if err != nil {
		return nil, err
	}

	game.Assign(fields)
	game.UpdatedAt = time.Now()
	columns := append(append([]string{}, models.MutableColumns...), "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(game).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// deleted between the lookup and the update
		return nil, errcodes.NotFound("Game")
	}

	return game, nil
}

// DeleteGame permanently removes the game with the given id.
func (svc *Service) DeleteGame(ctx context.Context, id int) error {
	game, err := svc.RetrieveGame(ctx, RetrieveGameOptions{ID: &id})
	if err != nil {
		return err
	}

	res, err := svc.db.
		NewDelete().
		Model(game).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errcodes.NotFound("Game")
	}
	return nil
}
