package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"santaAPI/internal/challenge"
	"time"
)

type UserChallengeService interface {
	UpdateProgress(ctx context.Context, userEmail string, userMountainID int64) error
	UpdateUserChallengeOnMeetingJoin(ctx context.Context, userID, meetingID int64) error
	FindUserChallenges(ctx context.Context, userID int64) ([]*challenge.UserChallenge, error)
}

type UserChallengeHandler struct {
	userChallengeService UserChallengeService
}

func NewUserChallengeHandler(userChallengeService UserChallengeService) *UserChallengeHandler {
	return &UserChallengeHandler{
		userChallengeService: userChallengeService,
	}
}

// RecordMountainVisit and RecordMeetingJoin are mounted behind
// middleware.InternalSecretMiddleware; the body names the user being credited.
func (h *UserChallengeHandler) RecordMountainVisit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req challenge.MountainVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("RecordMountainVisit: user mountain %d for %s", req.UserMountainID, req.Email)

	if err := h.userChallengeService.UpdateProgress(ctx, req.Email, req.UserMountainID); err != nil {
		respondWithServiceError(w, "RecordMountainVisit", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Challenge progress updated"})
}

func (h *UserChallengeHandler) RecordMeetingJoin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req challenge.MeetingJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("RecordMeetingJoin: meeting %d for user %d", req.MeetingID, req.UserID)

	if err := h.userChallengeService.UpdateUserChallengeOnMeetingJoin(ctx, req.UserID, req.MeetingID); err != nil {
		respondWithServiceError(w, "RecordMeetingJoin", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Challenge progress updated"})
}

func (h *UserChallengeHandler) ListUserChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	records, err := h.userChallengeService.FindUserChallenges(ctx, userID)
	if err != nil {
		respondWithServiceError(w, "ListUserChallenges", err)
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}
