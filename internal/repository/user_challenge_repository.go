package repository

import (
	"context"
	"errors"
	"fmt"
	"santaAPI/internal/challenge"
	"santaAPI/internal/database"

	"github.com/jackc/pgx/v5"
)

type UserChallengeRepository struct {
	db database.DBTX
}

func NewUserChallengeRepository(db database.DBTX) *UserChallengeRepository {
	return &UserChallengeRepository{db: db}
}

// FindByUserAndChallengeID locks the matching row for the rest of the
// surrounding transaction. It returns nil when the pair has no record yet.
func (r *UserChallengeRepository) FindByUserAndChallengeID(ctx context.Context, userID, challengeID int64) (*challenge.UserChallenge, error) {
	query := `
	SELECT id, user_id, challenge_id, progress, is_completed, completion_date
	FROM user_challenges
	WHERE user_id = $1 AND challenge_id = $2
	FOR UPDATE
	`
	var uc challenge.UserChallenge
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, userID, challengeID).Scan(
		&uc.ID,
		&uc.UserID,
		&uc.ChallengeID,
		&uc.Progress,
		&uc.IsCompleted,
		&uc.CompletionDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user challenge (%d, %d): %w", userID, challengeID, err)
	}
	return &uc, nil
}

// Save inserts a record without an ID and updates one that has it. When a
// concurrent request created the same (user, challenge) pair first, the insert
// reports database.ErrRetryable so the unit of work can start over.
func (r *UserChallengeRepository) Save(ctx context.Context, uc *challenge.UserChallenge) (*challenge.UserChallenge, error) {
	conn := database.Conn(ctx, r.db)
	saved := *uc

	if uc.ID == 0 {
		query := `
		INSERT INTO user_challenges (user_id, challenge_id, progress, is_completed, completion_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT uq_user_challenges_user_challenge DO NOTHING
		RETURNING id
		`
		err := conn.QueryRow(ctx, query,
			uc.UserID, uc.ChallengeID, uc.Progress, uc.IsCompleted, uc.CompletionDate,
		).Scan(&saved.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) || database.IsUniqueViolation(err) {
				return nil, fmt.Errorf("user challenge (%d, %d) already exists: %w", uc.UserID, uc.ChallengeID, database.ErrRetryable)
			}
			return nil, fmt.Errorf("failed to create user challenge: %w", err)
		}
		return &saved, nil
	}

	query := `
	UPDATE user_challenges
	SET progress = $1, is_completed = $2, completion_date = $3
	WHERE id = $4
	`
	_, err := conn.Exec(ctx, query, uc.Progress, uc.IsCompleted, uc.CompletionDate, uc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update user challenge %d: %w", uc.ID, err)
	}
	return &saved, nil
}

func (r *UserChallengeRepository) FindByUserID(ctx context.Context, userID int64) ([]*challenge.UserChallenge, error) {
	query := `
	SELECT id, user_id, challenge_id, progress, is_completed, completion_date
	FROM user_challenges
	WHERE user_id = $1
	ORDER BY id
	`
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user challenges: %w", err)
	}
	defer rows.Close()

	var result []*challenge.UserChallenge
	for rows.Next() {
		var uc challenge.UserChallenge
		if err := rows.Scan(&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.Progress, &uc.IsCompleted, &uc.CompletionDate); err != nil {
			return nil, fmt.Errorf("failed to scan user challenge: %w", err)
		}
		result = append(result, &uc)
	}
	return result, rows.Err()
}
