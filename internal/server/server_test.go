package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/royceleh/polly/internal/blob"
	"github.com/royceleh/polly/internal/config"
	"github.com/royceleh/polly/internal/db"
	"github.com/royceleh/polly/internal/logging"
	"github.com/royceleh/polly/internal/market"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logging.Silence()
	m.Run()
}

func newTestServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := market.New(conn, blob.NewMemoryStore())
	srv := New(conn, svc, config.Default())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, conn
}

// newClient returns an HTTP client with its own cookie jar, so each
// client acts as a distinct browser session.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func login(t *testing.T, client *http.Client, baseURL, name string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/login", map[string]string{"name": name})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login as %q: status %d", name, resp.StatusCode)
	}
}

type pollForm struct {
	question string
	kind     string
	options  []string
	image    []byte
	imageCT  string
}

func createPoll(t *testing.T, client *http.Client, baseURL string, form pollForm) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("question", form.question); err != nil {
		t.Fatalf("write question: %v", err)
	}
	if form.kind != "" {
		if err := writer.WriteField("kind", form.kind); err != nil {
			t.Fatalf("write kind: %v", err)
		}
	}
	for _, option := range form.options {
		if err := writer.WriteField("options", option); err != nil {
			t.Fatalf("write option: %v", err)
		}
	}
	if form.image != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="image"; filename="upload"`)
		header.Set("Content-Type", form.imageCT)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create image part: %v", err)
		}
		if _, err := part.Write(form.image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	resp, err := client.Post(baseURL+"/api/polls", writer.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST /api/polls: %v", err)
	}
	return resp
}

func listPolls(t *testing.T, client *http.Client, baseURL string) []market.PollTally {
	t.Helper()
	resp, err := client.Get(baseURL + "/api/polls")
	if err != nil {
		t.Fatalf("GET /api/polls: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list polls: status %d", resp.StatusCode)
	}
	var payload struct {
		Polls []market.PollTally `json:"polls"`
	}
	decodeBody(t, resp, &payload)
	return payload.Polls
}

func TestLoginValidation(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)

	resp := postJSON(t, client, ts.URL+"/api/login", map[string]string{"name": "   "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank name: got status %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, client, ts.URL+"/api/login", map[string]string{"name": "  Ada   Lovelace "})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: got status %d, want 200", resp.StatusCode)
	}
	var payload struct {
		Name string `json:"name"`
	}
	decodeBody(t, resp, &payload)
	if payload.Name != "Ada Lovelace" {
		t.Fatalf("got name %q, want %q", payload.Name, "Ada Lovelace")
	}
}

func TestLoginReusesExistingUser(t *testing.T) {
	ts, conn := newTestServer(t)

	first := newClient(t)
	login(t, first, ts.URL, "Ada")
	second := newClient(t)
	login(t, second, ts.URL, "Ada")

	var count int64
	if err := conn.Model(&db.User{}).Where("name = ?", "Ada").Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("got %d users named Ada, want 1", count)
	}
}

func TestCreatePollRequiresLogin(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)

	resp := createPoll(t, client, ts.URL, pollForm{question: "Will it rain?"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", resp.StatusCode)
	}
}

func TestBinaryPollFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	alice := newClient(t)
	login(t, alice, ts.URL, "Alice")
	resp := createPoll(t, alice, ts.URL, pollForm{question: "Will it rain tomorrow?"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create poll: got status %d, want 201", resp.StatusCode)
	}
	var created struct {
		PollID  uint   `json:"poll_id"`
		Success string `json:"success"`
	}
	decodeBody(t, resp, &created)
	if created.PollID == 0 {
		t.Fatal("create poll: missing poll_id")
	}

	bob := newClient(t)
	login(t, bob, ts.URL, "Bob")
	voteURL := fmt.Sprintf("%s/api/polls/%d/vote", ts.URL, created.PollID)
	resp = postJSON(t, bob, voteURL, map[string]any{"answer": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("vote: got status %d, want 200", resp.StatusCode)
	}
	var voted struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &voted)
	if !strings.Contains(voted.Message, `"Yes"`) {
		t.Fatalf("vote message %q does not name the answer", voted.Message)
	}

	resp = postJSON(t, bob, voteURL, map[string]any{"answer": false})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second vote: got status %d, want 409", resp.StatusCode)
	}

	resp, err := bob.Get(ts.URL + "/api/points")
	if err != nil {
		t.Fatalf("GET /api/points: %v", err)
	}
	var balance struct {
		Points int `json:"points"`
	}
	decodeBody(t, resp, &balance)
	if balance.Points != 1 {
		t.Fatalf("got %d points, want 1", balance.Points)
	}

	polls := listPolls(t, bob, ts.URL)
	if len(polls) != 1 {
		t.Fatalf("got %d polls, want 1", len(polls))
	}
	poll := polls[0]
	if poll.Yes != 1 || poll.No != 0 || poll.Total != 1 {
		t.Fatalf("got tally yes=%d no=%d total=%d", poll.Yes, poll.No, poll.Total)
	}
	if poll.YesPercent != 100 || poll.NoPercent != 0 {
		t.Fatalf("got percents yes=%d no=%d", poll.YesPercent, poll.NoPercent)
	}
	if !poll.HasVoted || poll.UserAnswer == nil || !*poll.UserAnswer {
		t.Fatal("tally does not reflect the caller's own vote")
	}
}

func TestMultipleChoicePollFlow(t *testing.T) {
	ts, _ := newTestServer(t)

	alice := newClient(t)
	login(t, alice, ts.URL, "Alice")
	resp := createPoll(t, alice, ts.URL, pollForm{
		question: "Best release day?",
		kind:     "multiple",
		options:  []string{"Monday", "Thursday"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create poll: got status %d, want 201", resp.StatusCode)
	}

	polls := listPolls(t, alice, ts.URL)
	if len(polls) != 1 || len(polls[0].Options) != 2 {
		t.Fatalf("got %d polls, want 1 with 2 options", len(polls))
	}
	optionID := polls[0].Options[1].ID

	bob := newClient(t)
	login(t, bob, ts.URL, "Bob")
	voteURL := fmt.Sprintf("%s/api/polls/%d/vote", ts.URL, polls[0].ID)
	resp = postJSON(t, bob, voteURL, map[string]any{"option_id": optionID})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("vote: got status %d, want 200", resp.StatusCode)
	}

	polls = listPolls(t, bob, ts.URL)
	option := polls[0].Options[1]
	if option.Votes != 1 || option.Percent != 100 {
		t.Fatalf("got option votes=%d percent=%d", option.Votes, option.Percent)
	}
	if polls[0].UserOptionID != optionID {
		t.Fatalf("got user option %d, want %d", polls[0].UserOptionID, optionID)
	}
}

func TestCreatePollValidationStatus(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)
	login(t, client, ts.URL, "Alice")

	resp := createPoll(t, client, ts.URL, pollForm{question: ""})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty question: got status %d, want 400", resp.StatusCode)
	}

	resp = createPoll(t, client, ts.URL, pollForm{
		question: "Pick one",
		kind:     "multiple",
		options:  []string{"only"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("single option: got status %d, want 400", resp.StatusCode)
	}

	resp = createPoll(t, client, ts.URL, pollForm{
		question: "With attachment",
		image:    []byte("plain text"),
		imageCT:  "text/plain",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("non-image upload: got status %d, want 400", resp.StatusCode)
	}
}

func TestVoteErrorStatuses(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)

	resp := postJSON(t, client, ts.URL+"/api/polls/1/vote", map[string]any{"answer": true})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous vote: got status %d, want 401", resp.StatusCode)
	}

	login(t, client, ts.URL, "Alice")
	resp = postJSON(t, client, ts.URL+"/api/polls/999/vote", map[string]any{"answer": true})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown poll: got status %d, want 404", resp.StatusCode)
	}

	resp = postJSON(t, client, ts.URL+"/api/polls/abc/vote", map[string]any{"answer": true})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad poll id: got status %d, want 400", resp.StatusCode)
	}

	createResp := createPoll(t, client, ts.URL, pollForm{question: "Will it rain?"})
	var created struct {
		PollID uint `json:"poll_id"`
	}
	decodeBody(t, createResp, &created)
	resp = postJSON(t, client, fmt.Sprintf("%s/api/polls/%d/vote", ts.URL, created.PollID), map[string]any{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty choice: got status %d, want 400", resp.StatusCode)
	}
}

func TestRewardsFlow(t *testing.T) {
	ts, conn := newTestServer(t)
	reward := db.Reward{Name: "Coffee voucher", Description: "One free coffee", PointsCost: 2, Active: true}
	if err := conn.Create(&reward).Error; err != nil {
		t.Fatalf("seed reward: %v", err)
	}

	anon := newClient(t)
	resp, err := anon.Get(ts.URL + "/api/rewards")
	if err != nil {
		t.Fatalf("GET /api/rewards: %v", err)
	}
	var catalog struct {
		Rewards []struct {
			ID         uint   `json:"id"`
			Name       string `json:"name"`
			PointsCost int    `json:"points_cost"`
		} `json:"rewards"`
	}
	decodeBody(t, resp, &catalog)
	if len(catalog.Rewards) != 1 || catalog.Rewards[0].Name != "Coffee voucher" {
		t.Fatalf("got catalog %+v", catalog.Rewards)
	}

	redeemURL := fmt.Sprintf("%s/api/rewards/%d/redeem", ts.URL, reward.ID)
	resp = postJSON(t, anon, redeemURL, map[string]any{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous redeem: got status %d, want 401", resp.StatusCode)
	}

	alice := newClient(t)
	login(t, alice, ts.URL, "Alice")
	resp = postJSON(t, alice, redeemURL, map[string]any{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("unaffordable redeem: got status %d, want 409", resp.StatusCode)
	}

	creator := newClient(t)
	login(t, creator, ts.URL, "Creator")
	for i := 0; i < 2; i++ {
		createResp := createPoll(t, creator, ts.URL, pollForm{question: fmt.Sprintf("Question %d?", i)})
		var created struct {
			PollID uint `json:"poll_id"`
		}
		decodeBody(t, createResp, &created)
		voteResp := postJSON(t, alice, fmt.Sprintf("%s/api/polls/%d/vote", ts.URL, created.PollID), map[string]any{"answer": true})
		voteResp.Body.Close()
		if voteResp.StatusCode != http.StatusOK {
			t.Fatalf("vote %d: got status %d, want 200", i, voteResp.StatusCode)
		}
	}

	resp = postJSON(t, alice, redeemURL, map[string]any{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("redeem: got status %d, want 200", resp.StatusCode)
	}
	var redeemed struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &redeemed)
	if !strings.Contains(redeemed.Message, "Coffee voucher") {
		t.Fatalf("redeem message %q does not name the reward", redeemed.Message)
	}

	resp, err = alice.Get(ts.URL + "/api/redemptions")
	if err != nil {
		t.Fatalf("GET /api/redemptions: %v", err)
	}
	var history struct {
		Redemptions []struct {
			RewardName  string `json:"reward_name"`
			PointsSpent int    `json:"points_spent"`
		} `json:"redemptions"`
	}
	decodeBody(t, resp, &history)
	if len(history.Redemptions) != 1 {
		t.Fatalf("got %d redemptions, want 1", len(history.Redemptions))
	}
	if history.Redemptions[0].RewardName != "Coffee voucher" || history.Redemptions[0].PointsSpent != 2 {
		t.Fatalf("got redemption %+v", history.Redemptions[0])
	}

	resp, err = alice.Get(ts.URL + "/api/points")
	if err != nil {
		t.Fatalf("GET /api/points: %v", err)
	}
	var balance struct {
		Points int `json:"points"`
	}
	decodeBody(t, resp, &balance)
	if balance.Points != 0 {
		t.Fatalf("got %d points after redeeming, want 0", balance.Points)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)

	resp, err := client.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous stats: got status %d, want 401", resp.StatusCode)
	}

	login(t, client, ts.URL, "Alice")
	createResp := createPoll(t, client, ts.URL, pollForm{question: "Will it rain?"})
	createResp.Body.Close()

	resp, err = client.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	var stats struct {
		Points        int `json:"points"`
		PollsAnswered int `json:"polls_answered"`
		PollsCreated  int `json:"polls_created"`
	}
	decodeBody(t, resp, &stats)
	if stats.PollsCreated != 1 || stats.PollsAnswered != 0 || stats.Points != 0 {
		t.Fatalf("got stats %+v", stats)
	}
}

func TestViewPages(t *testing.T) {
	ts, conn := newTestServer(t)
	if err := conn.Create(&db.Reward{Name: "Sticker", PointsCost: 1, Active: true}).Error; err != nil {
		t.Fatalf("seed reward: %v", err)
	}

	client := newClient(t)
	login(t, client, ts.URL, "Alice")
	createResp := createPoll(t, client, ts.URL, pollForm{question: "Will the deploy ship on time?"})
	createResp.Body.Close()

	pages := []string{"/", "/rewards", "/dashboard", "/polls/create"}
	for _, page := range pages {
		resp, err := client.Get(ts.URL + page)
		if err != nil {
			t.Fatalf("GET %s: %v", page, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: status %d", page, resp.StatusCode)
		}
		if !strings.Contains(string(body), "<html") {
			t.Fatalf("GET %s: response is not a page", page)
		}
	}

	resp, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "Will the deploy ship on time?") {
		t.Fatal("home page does not render the poll question")
	}
}

func TestGuardedViewsRedirectAnonymous(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	for _, page := range []string{"/polls/create", "/dashboard"} {
		resp, err := client.Get(ts.URL + page)
		if err != nil {
			t.Fatalf("GET %s: %v", page, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("GET %s: got status %d, want 302", page, resp.StatusCode)
		}
		if location := resp.Header.Get("Location"); location != "/" {
			t.Fatalf("GET %s: redirects to %q, want /", page, location)
		}
	}
}

func TestLogoutClearsSession(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)
	login(t, client, ts.URL, "Alice")

	resp := postJSON(t, client, ts.URL+"/api/logout", map[string]any{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: got status %d, want 200", resp.StatusCode)
	}

	resp, err := client.Get(ts.URL + "/api/points")
	if err != nil {
		t.Fatalf("GET /api/points: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("after logout: got status %d, want 401", resp.StatusCode)
	}
}
