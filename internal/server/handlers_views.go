package server

import (
	"net/http"

	"github.com/royceleh/polly/internal/logging"
	"github.com/royceleh/polly/internal/market"
	"github.com/royceleh/polly/internal/web"

	"github.com/a-h/templ"
)

func (s *Server) viewer(w http.ResponseWriter, r *http.Request) (web.Viewer, uint) {
	user, ok := s.currentUser(w, r)
	if !ok {
		return web.Viewer{}, 0
	}
	points, err := s.market.Balance(user.ID)
	if err != nil {
		logging.Log.WithError(err).Error("read balance failed")
	}
	return web.Viewer{LoggedIn: true, Name: user.Name, Points: points}, user.ID
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	viewer, userID := s.viewer(w, r)
	flash := s.sessions.PopFlash(w, r)
	tallies, err := s.market.ListPollsWithTallies(userID)
	if err != nil {
		logging.Log.WithError(err).Error("list polls failed")
		http.Error(w, "failed to load markets", http.StatusInternalServerError)
		return
	}
	cards := make([]web.PollCard, 0, len(tallies))
	for _, tally := range tallies {
		cards = append(cards, pollCard(tally))
	}
	templ.Handler(web.Home(viewer, flash, cards)).ServeHTTP(w, r)
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	viewer, _ := s.viewer(w, r)
	if !viewer.LoggedIn {
		s.sessions.SetFlash(w, r, "Log in to create a market.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	flash := s.sessions.PopFlash(w, r)
	templ.Handler(web.CreatePoll(viewer, flash)).ServeHTTP(w, r)
}

func (s *Server) handleRewardsView(w http.ResponseWriter, r *http.Request) {
	viewer, userID := s.viewer(w, r)
	flash := s.sessions.PopFlash(w, r)

	rewards, err := s.market.ListActiveRewards()
	if err != nil {
		logging.Log.WithError(err).Error("list rewards failed")
		http.Error(w, "failed to load rewards", http.StatusInternalServerError)
		return
	}
	cards := make([]web.RewardCard, 0, len(rewards))
	for _, reward := range rewards {
		cards = append(cards, web.RewardCard{
			ID:          reward.ID,
			Name:        reward.Name,
			Description: reward.Description,
			PointsCost:  reward.PointsCost,
			Affordable:  viewer.LoggedIn && viewer.Points >= reward.PointsCost,
		})
	}

	var history []web.RedemptionRow
	if userID != 0 {
		redemptions, err := s.market.RedemptionHistory(userID)
		if err != nil {
			logging.Log.WithError(err).Error("list redemptions failed")
		}
		for _, redemption := range redemptions {
			history = append(history, web.RedemptionRow{
				RewardName:  redemption.Reward.Name,
				Description: redemption.Reward.Description,
				PointsSpent: redemption.PointsSpent,
				RedeemedAt:  redemption.CreatedAt.UTC().Format("Jan 2, 2006"),
			})
		}
	}
	templ.Handler(web.Rewards(viewer, flash, cards, history)).ServeHTTP(w, r)
}

func (s *Server) handleDashboardView(w http.ResponseWriter, r *http.Request) {
	viewer, userID := s.viewer(w, r)
	if !viewer.LoggedIn {
		s.sessions.SetFlash(w, r, "Log in to see your dashboard.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	flash := s.sessions.PopFlash(w, r)

	stats, err := s.market.Stats(userID)
	if err != nil {
		logging.Log.WithError(err).Error("read stats failed")
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	rewardStats, err := s.market.RewardStatsFor(userID)
	if err != nil {
		logging.Log.WithError(err).Error("read reward stats failed")
	}
	templ.Handler(web.Dashboard(viewer, flash, web.DashboardStats{
		Points:           stats.Points,
		PollsAnswered:    int(stats.PollsAnswered),
		PollsCreated:     int(stats.PollsCreated),
		TotalRedemptions: int(rewardStats.TotalRedemptions),
		TotalPointsSpent: int(rewardStats.TotalPointsSpent),
	})).ServeHTTP(w, r)
}

func pollCard(tally market.PollTally) web.PollCard {
	card := web.PollCard{
		ID:         tally.ID,
		Question:   tally.Question,
		ImageURL:   tally.ImageURL,
		Kind:       tally.Kind,
		CreatedAt:  tally.CreatedAt,
		Yes:        tally.Yes,
		No:         tally.No,
		Total:      tally.Total,
		YesPercent: tally.YesPercent,
		NoPercent:  tally.NoPercent,
		HasVoted:   tally.HasVoted,
		UserAnswer: tally.UserAnswer,
	}
	for _, option := range tally.Options {
		card.Options = append(card.Options, web.OptionRow{
			ID:      option.ID,
			Text:    option.Text,
			Votes:   option.Votes,
			Percent: option.Percent,
			Chosen:  tally.UserOptionID == option.ID && tally.HasVoted,
		})
	}
	return card
}
