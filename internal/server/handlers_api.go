package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/royceleh/polly/internal/blob"
	"github.com/royceleh/polly/internal/logging"
	"github.com/royceleh/polly/internal/market"
)

type voteRequest struct {
	Answer   *bool `json:"answer,omitempty"`
	OptionID uint  `json:"option_id,omitempty"`
}

func (s *Server) handleListPolls(w http.ResponseWriter, r *http.Request) {
	userID := s.sessions.UserID(w, r)
	tallies, err := s.market.ListPollsWithTallies(userID)
	if err != nil {
		logging.Log.WithError(err).Error("list polls failed")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"polls": tallies})
}

// handleCreatePoll accepts the multipart create form: question, kind,
// repeated options fields, and an optional image part.
func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, market.ErrUnauthenticated.Error())
		return
	}
	if err := r.ParseMultipartForm(blob.MaxImageBytes + 1024*1024); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	input := market.CreatePollInput{
		Question: r.FormValue("question"),
		Kind:     r.FormValue("kind"),
		Options:  r.MultipartForm.Value["options"],
	}
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, blob.MaxImageBytes+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read image")
			return
		}
		input.Image = &market.ImageUpload{
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	poll, err := s.market.CreatePoll(user.ID, input)
	if err != nil {
		if errors.Is(err, market.ErrStorageFailure) || errors.Is(err, market.ErrPersistence) {
			logging.Log.WithError(err).Error("create poll failed")
		}
		writeServiceError(w, err)
		return
	}
	logging.Log.WithField("poll_id", poll.ID).WithField("user_id", user.ID).Info("poll created")
	writeJSON(w, http.StatusCreated, map[string]any{
		"poll_id": poll.ID,
		"success": "Poll created successfully!",
	})
	s.broadcastHomeUpdate()
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, market.ErrUnauthenticated.Error())
		return
	}
	pollID, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid poll id")
		return
	}
	var req voteRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var choice market.VoteChoice
	switch {
	case req.OptionID != 0:
		choice = market.OptionChoice(req.OptionID)
	case req.Answer != nil:
		choice = market.BinaryChoice(*req.Answer)
	default:
		writeError(w, http.StatusBadRequest, "either answer or option_id is required")
		return
	}

	message, err := s.market.Vote(user.ID, pollID, choice)
	if err != nil {
		if errors.Is(err, market.ErrPersistence) {
			logging.Log.WithError(err).Error("vote failed")
		}
		writeServiceError(w, err)
		return
	}
	logging.Log.WithField("poll_id", pollID).WithField("user_id", user.ID).Info("vote recorded")
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
	s.broadcastHomeUpdate()
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, market.ErrUnauthenticated.Error())
		return
	}
	points, err := s.market.Balance(user.ID)
	if err != nil {
		logging.Log.WithError(err).Error("read balance failed")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"points": points})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, market.ErrUnauthenticated.Error())
		return
	}
	stats, err := s.market.Stats(user.ID)
	if err != nil {
		logging.Log.WithError(err).Error("read stats failed")
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := s.market.ListActiveRewards()
	if err != nil {
		logging.Log.WithError(err).Error("list rewards failed")
		writeServiceError(w, err)
		return
	}
	payload := make([]map[string]any, 0, len(rewards))
	for _, reward := range rewards {
		payload = append(payload, map[string]any{
			"id":          reward.ID,
			"name":        reward.Name,
			"description": reward.Description,
			"points_cost": reward.PointsCost,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rewards": payload})
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, market.ErrUnauthenticated.Error())
		return
	}
	rewardID, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid reward id")
		return
	}
	message, err := s.market.Redeem(user.ID, rewardID)
	if err != nil {
		if errors.Is(err, market.ErrPersistence) {
			logging.Log.WithError(err).Error("redeem failed")
		}
		writeServiceError(w, err)
		return
	}
	logging.Log.WithField("reward_id", rewardID).WithField("user_id", user.ID).Info("reward redeemed")
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (s *Server) handleRedemptions(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(w, r)
	if !ok {
		writeError(w, http.StatusUnauthorized, market.ErrUnauthenticated.Error())
		return
	}
	redemptions, err := s.market.RedemptionHistory(user.ID)
	if err != nil {
		logging.Log.WithError(err).Error("list redemptions failed")
		writeServiceError(w, err)
		return
	}
	payload := make([]map[string]any, 0, len(redemptions))
	for _, redemption := range redemptions {
		payload = append(payload, map[string]any{
			"id":           redemption.ID,
			"reward_id":    redemption.RewardID,
			"reward_name":  redemption.Reward.Name,
			"description":  redemption.Reward.Description,
			"points_spent": redemption.PointsSpent,
			"redeemed_at":  redemption.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"redemptions": payload})
}

func parseID(raw string) (uint, bool) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}
