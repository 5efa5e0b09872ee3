package repository

import (
	"context"
	"errors"
	"fmt"
	"santaAPI/internal/database"
	"santaAPI/internal/meeting"
	"santaAPI/internal/mountain"

	"github.com/jackc/pgx/v5"
)

type UserMountainRepository struct {
	db database.DBTX
}

func NewUserMountainRepository(db database.DBTX) *UserMountainRepository {
	return &UserMountainRepository{db: db}
}

func (r *UserMountainRepository) FindByID(ctx context.Context, id int64) (*mountain.UserMountain, error) {
	query := `
	SELECT um.id, um.user_id, um.mountain_id, um.climb_date, cat.id, cat.name
	FROM user_mountains um
	JOIN categories cat ON cat.id = um.category_id
	WHERE um.id = $1
	`
	var um mountain.UserMountain
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&um.ID,
		&um.UserID,
		&um.MountainID,
		&um.ClimbDate,
		&um.Category.ID,
		&um.Category.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user mountain %d: %w", id, err)
	}
	return &um, nil
}

type MeetingRepository struct {
	db database.DBTX
}

func NewMeetingRepository(db database.DBTX) *MeetingRepository {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) FindByID(ctx context.Context, id int64) (*meeting.Meeting, error) {
	query := `
	SELECT m.id, m.name, cat.id, cat.name
	FROM meetings m
	JOIN categories cat ON cat.id = m.category_id
	WHERE m.id = $1
	`
	var m meeting.Meeting
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Name,
		&m.Category.ID,
		&m.Category.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meeting %d: %w", id, err)
	}
	return &m, nil
}
