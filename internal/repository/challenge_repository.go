package repository

import (
	"context"
	"errors"
	"fmt"
	"santaAPI/internal/challenge"
	"santaAPI/internal/database"

	"github.com/jackc/pgx/v5"
)

const challengeColumns = `
	c.id, c.name, c.description, c.image, c.clear_standard,
	cat.id, cat.name
`

type ChallengeRepository struct {
	db database.DBTX
}

func NewChallengeRepository(db database.DBTX) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	var c challenge.Challenge
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Image,
		&c.ClearStandard,
		&c.Category.ID,
		&c.Category.Name,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Save inserts the challenge when it has no ID yet and updates it otherwise.
func (r *ChallengeRepository) Save(ctx context.Context, c *challenge.Challenge) (*challenge.Challenge, error) {
	conn := database.Conn(ctx, r.db)
	saved := *c

	if c.ID == 0 {
		query := `
		INSERT INTO challenges (name, description, image, clear_standard, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
		`
		err := conn.QueryRow(ctx, query,
			c.Name, c.Description, c.Image, c.ClearStandard, c.Category.ID,
		).Scan(&saved.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create challenge: %w", err)
		}
		return &saved, nil
	}

	query := `
	UPDATE challenges
	SET name = $1, description = $2, image = $3, clear_standard = $4, category_id = $5
	WHERE id = $6
	`
	tag, err := conn.Exec(ctx, query,
		c.Name, c.Description, c.Image, c.ClearStandard, c.Category.ID, c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update challenge %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("failed to update challenge %d: %w", c.ID, pgx.ErrNoRows)
	}
	return &saved, nil
}

// FindByID returns nil when the challenge does not exist.
func (r *ChallengeRepository) FindByID(ctx context.Context, id int64) (*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + `
	FROM challenges c
	JOIN categories cat ON cat.id = c.category_id
	WHERE c.id = $1
	`
	c, err := scanChallenge(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get challenge %d: %w", id, err)
	}
	return c, nil
}

func (r *ChallengeRepository) FindAll(ctx context.Context, page challenge.PageRequest) (*challenge.Page[*challenge.Challenge], error) {
	conn := database.Conn(ctx, r.db)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM challenges`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count challenges: %w", err)
	}

	query := `SELECT ` + challengeColumns + `
	FROM challenges c
	JOIN categories cat ON cat.id = c.category_id
	ORDER BY c.id
	LIMIT $1 OFFSET $2
	`
	challenges, err := r.queryChallenges(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}

	return challenge.NewPage(challenges, page, total), nil
}

func (r *ChallengeRepository) FindByCategoryName(ctx context.Context, name string) ([]*challenge.Challenge, error) {
	query := `SELECT ` + challengeColumns + `
	FROM challenges c
	JOIN categories cat ON cat.id = c.category_id
	WHERE cat.name = $1
	ORDER BY c.id
	`
	return r.queryChallenges(ctx, query, name)
}

// DeleteByID removes the challenge; deleting a missing id is not an error.
func (r *ChallengeRepository) DeleteByID(ctx context.Context, id int64) error {
	_, err := database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete challenge %d: %w", id, err)
	}
	return nil
}

func (r *ChallengeRepository) queryChallenges(ctx context.Context, query string, args ...any) ([]*challenge.Challenge, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return challenges, nil
}
