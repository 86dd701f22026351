package web

type OptionRow struct {
	ID      uint
	Text    string
	Votes   int
	Percent int
	Chosen  bool
}

type PollCard struct {
	ID         uint
	Question   string
	ImageURL   string
	Kind       string
	CreatedAt  string
	Yes        int
	No         int
	Total      int
	YesPercent int
	NoPercent  int
	HasVoted   bool
	UserAnswer *bool
	Options    []OptionRow
}

type RewardCard struct {
	ID          uint
	Name        string
	Description string
	PointsCost  int
	Affordable  bool
}

type RedemptionRow struct {
	RewardName  string
	Description string
	PointsSpent int
	RedeemedAt  string
}

type Viewer struct {
	LoggedIn bool
	Name     string
	Points   int
}
