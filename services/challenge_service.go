package services

import (
	"context"
	"fmt"
	"log"
	"santaAPI/internal/category"
	"santaAPI/internal/challenge"
	"santaAPI/internal/exception"
)

type CategoryLookup interface {
	FindByName(ctx context.Context, name string) (*category.Category, error)
}

type ChallengeStore interface {
	Save(ctx context.Context, c *challenge.Challenge) (*challenge.Challenge, error)
	FindByID(ctx context.Context, id int64) (*challenge.Challenge, error)
	FindAll(ctx context.Context, page challenge.PageRequest) (*challenge.Page[*challenge.Challenge], error)
	DeleteByID(ctx context.Context, id int64) error
	FindByCategoryName(ctx context.Context, name string) ([]*challenge.Challenge, error)
}

// ImageUploader stores an image and returns the URL it is served from.
// Delete takes a URL previously returned by Upload.
type ImageUploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// UnitOfWork runs fn atomically; collaborators called with the ctx passed to
// fn take part in the same transaction.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ChallengeService struct {
	tx         UnitOfWork
	categories CategoryLookup
	challenges ChallengeStore
	images     ImageUploader
}

func NewChallengeService(tx UnitOfWork, categories CategoryLookup, challenges ChallengeStore, images ImageUploader) *ChallengeService {
	return &ChallengeService{
		tx:         tx,
		categories: categories,
		challenges: challenges,
		images:     images,
	}
}

// CreateChallenge uploads the attached image, if any, before opening the
// transaction for the insert. A failed insert removes the uploaded image.
func (s *ChallengeService) CreateChallenge(ctx context.Context, req *challenge.ChallengeRequest) (*challenge.ChallengeResponse, error) {
	cat, err := s.findCategory(ctx, req.CategoryName)
	if err != nil {
		return nil, err
	}

	image, uploaded, err := s.resolveImage(ctx, req)
	if err != nil {
		return nil, err
	}

	var saved *challenge.Challenge
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		saved, err = s.challenges.Save(ctx, &challenge.Challenge{
			Name:          req.Name,
			Description:   req.Description,
			Image:         image,
			ClearStandard: req.ClearStandard,
			Category:      *cat,
		})
		if err != nil {
			return fmt.Errorf("failed to save challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		if uploaded {
			s.discardUpload(ctx, image)
		}
		return nil, err
	}

	return challenge.ToResponse(saved), nil
}

func (s *ChallengeService) FindAllChallenges(ctx context.Context, page challenge.PageRequest) (*challenge.Page[*challenge.ChallengeResponse], error) {
	result, err := s.challenges.FindAll(ctx, page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	return challenge.MapPage(result, challenge.ToResponse), nil
}

// FindChallengeByID returns nil, nil when the challenge does not exist.
func (s *ChallengeService) FindChallengeByID(ctx context.Context, id int64) (*challenge.ChallengeResponse, error) {
	c, err := s.challenges.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return challenge.ToResponse(c), nil
}

// UpdateChallenge checks the challenge and category, uploads a new image if
// one is attached, and then rewrites the challenge in one transaction.
func (s *ChallengeService) UpdateChallenge(ctx context.Context, id int64, req *challenge.ChallengeRequest) (*challenge.ChallengeResponse, error) {
	if _, err := s.findChallenge(ctx, id); err != nil {
		return nil, err
	}
	cat, err := s.findCategory(ctx, req.CategoryName)
	if err != nil {
		return nil, err
	}

	image, uploaded, err := s.resolveImage(ctx, req)
	if err != nil {
		return nil, err
	}

	var saved *challenge.Challenge
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// deleted while the image was uploading
		existing, err := s.findChallenge(ctx, id)
		if err != nil {
			return err
		}

		existing.Name = req.Name
		existing.Description = req.Description
		existing.ClearStandard = req.ClearStandard
		existing.Category = *cat
		existing.Image = image

		saved, err = s.challenges.Save(ctx, existing)
		if err != nil {
			return fmt.Errorf("failed to save challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		if uploaded {
			s.discardUpload(ctx, image)
		}
		return nil, err
	}

	return challenge.ToResponse(saved), nil
}

// DeleteChallenge is idempotent: a missing id is not an error.
func (s *ChallengeService) DeleteChallenge(ctx context.Context, id int64) error {
	if err := s.challenges.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}

func (s *ChallengeService) findChallenge(ctx context.Context, id int64) (*challenge.Challenge, error) {
	c, err := s.challenges.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if c == nil {
		return nil, exception.New(exception.ChallengeNotFound)
	}
	return c, nil
}

func (s *ChallengeService) findCategory(ctx context.Context, name string) (*category.Category, error) {
	cat, err := s.categories.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if cat == nil {
		return nil, exception.New(exception.CategoryNotFound)
	}
	return cat, nil
}

// resolveImage uploads the request's file when one is attached and otherwise
// keeps the URL given in the request.
func (s *ChallengeService) resolveImage(ctx context.Context, req *challenge.ChallengeRequest) (string, bool, error) {
	if req.ImageFile == nil {
		return req.Image, false, nil
	}

	url, err := s.images.Upload(ctx, req.ImageFile.Filename, req.ImageFile.ContentType, req.ImageFile.Data)
	if err != nil {
		imageUploadsTotal.WithLabelValues("failure").Inc()
		return "", false, fmt.Errorf("failed to upload challenge image: %w", err)
	}
	imageUploadsTotal.WithLabelValues("success").Inc()
	return url, true, nil
}

// discardUpload removes an image that no stored challenge points at.
func (s *ChallengeService) discardUpload(ctx context.Context, url string) {
	if err := s.images.Delete(context.WithoutCancel(ctx), url); err != nil {
		log.Printf("ChallengeService: failed to remove orphaned image %s: %v", url, err)
	}
}
