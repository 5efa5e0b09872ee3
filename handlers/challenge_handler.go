package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"santaAPI/internal/challenge"
	"santaAPI/middleware"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

const (
	maxImageBytes     = 10 << 20
	maxJSONBytes      = 1 << 20
	imageFileFormName = "imageFile"
)

var (
	errInvalidBody          = errors.New("Invalid request body")
	errInvalidClearStandard = errors.New("clearStandard must be an integer")
)

type ChallengeService interface {
	CreateChallenge(ctx context.Context, req *challenge.ChallengeRequest) (*challenge.ChallengeResponse, error)
	FindAllChallenges(ctx context.Context, page challenge.PageRequest) (*challenge.Page[*challenge.ChallengeResponse], error)
	FindChallengeByID(ctx context.Context, id int64) (*challenge.ChallengeResponse, error)
	UpdateChallenge(ctx context.Context, id int64, req *challenge.ChallengeRequest) (*challenge.ChallengeResponse, error)
	DeleteChallenge(ctx context.Context, id int64) error
}

type ChallengeHandler struct {
	challengeService ChallengeService
}

func NewChallengeHandler(challengeService ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

func (h *ChallengeHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	req, err := decodeChallengeRequest(w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.challengeService.CreateChallenge(ctx, req)
	if err != nil {
		respondWithServiceError(w, "CreateChallenge", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ChallengeHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	result, err := h.challengeService.FindAllChallenges(ctx, challenge.PageRequest{Page: page, Size: size})
	if err != nil {
		respondWithServiceError(w, "ListChallenges", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ChallengeHandler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	found, err := h.challengeService.FindChallengeByID(ctx, id)
	if err != nil {
		respondWithServiceError(w, "GetChallenge", err)
		return
	}
	if found == nil {
		respondWithError(w, http.StatusNotFound, "Challenge not found")
		return
	}

	respondWithJSON(w, http.StatusOK, found)
}

func (h *ChallengeHandler) UpdateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	req, err := decodeChallengeRequest(w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.challengeService.UpdateChallenge(ctx, id, req)
	if err != nil {
		respondWithServiceError(w, "UpdateChallenge", err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *ChallengeHandler) DeleteChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.challengeService.DeleteChallenge(ctx, id); err != nil {
		respondWithServiceError(w, "DeleteChallenge", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeChallengeRequest accepts either a JSON body or a multipart form whose
// optional imageFile part replaces the image URL field.
func decodeChallengeRequest(w http.ResponseWriter, r *http.Request) (*challenge.ChallengeRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req challenge.ChallengeRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errInvalidBody
		}
		return &req, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return nil, errInvalidBody
	}

	req := &challenge.ChallengeRequest{
		CategoryName: r.FormValue("categoryName"),
		Name:         r.FormValue("name"),
		Description:  r.FormValue("description"),
		Image:        r.FormValue("image"),
	}
	if raw := r.FormValue("clearStandard"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errInvalidClearStandard
		}
		req.ClearStandard = n
	}

	file, header, err := r.FormFile(imageFileFormName)
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return nil, errInvalidBody
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errInvalidBody
	}
	req.ImageFile = &challenge.ImageFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return req, nil
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}
