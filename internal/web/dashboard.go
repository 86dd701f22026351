package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

type DashboardStats struct {
	Points           int
	PollsAnswered    int
	PollsCreated     int
	TotalRedemptions int
	TotalPointsSpent int
}

func Dashboard(viewer Viewer, flash string, stats DashboardStats) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		writeAll(&b, `      <section class="panel">
        <div>
          <h2>Your activity</h2>
        </div>
        <dl class="stats">
          <div><dt>Points</dt><dd>`, itoa(stats.Points), `</dd></div>
          <div><dt>Polls answered</dt><dd>`, itoa(stats.PollsAnswered), `</dd></div>
          <div><dt>Markets created</dt><dd>`, itoa(stats.PollsCreated), `</dd></div>
          <div><dt>Rewards redeemed</dt><dd>`, itoa(stats.TotalRedemptions), `</dd></div>
          <div><dt>Points spent</dt><dd>`, itoa(stats.TotalPointsSpent), `</dd></div>
        </dl>
      </section>
`)
		_, err := io.WriteString(w, pageShell("Dashboard", viewer, flash, b.String()))
		return err
	})
}
