package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Home renders the market listing: one card per poll with tallies, the
// caller's own vote, and vote controls when they have not voted yet.
func Home(viewer Viewer, flash string, polls []PollCard) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`      <section class="panel">
        <div>
          <h2>Prediction markets</h2>
          <p>Vote once per question and earn points toward rewards.</p>
        </div>
      </section>
      <section class="markets" id="markets">
`)
		if len(polls) == 0 {
			b.WriteString(`        <p class="empty">No markets yet. Create the first one!</p>
`)
		}
		for _, poll := range polls {
			writePollCard(&b, viewer, poll)
		}
		b.WriteString(`      </section>
      <div id="voteResult" class="result"></div>
`)
		body := b.String() + homeScript
		_, err := io.WriteString(w, pageShell("Markets", viewer, flash, body))
		return err
	})
}

func writePollCard(b *strings.Builder, viewer Viewer, poll PollCard) {
	writeAll(b, `        <article class="card" data-poll="`, utoa(poll.ID), `">
`)
	if poll.ImageURL != "" {
		writeAll(b, `          <img class="poll-image" src="`, esc(poll.ImageURL), `" alt="Poll"/>
`)
	}
	writeAll(b, `          <h3>`, esc(poll.Question), `</h3>
          <p class="meta">`, itoa(poll.Total), ` votes · `, esc(poll.CreatedAt), `</p>
`)
	if poll.Kind == "multiple" {
		writeOptionRows(b, viewer, poll)
	} else {
		writeBinaryRows(b, viewer, poll)
	}
	if poll.HasVoted {
		b.WriteString(`          <span class="badge">Voted</span>
`)
	}
	b.WriteString(`        </article>
`)
}

func writeBinaryRows(b *strings.Builder, viewer Viewer, poll PollCard) {
	writeAll(b, `          <div class="tally">
            <span class="yes">Yes `, itoa(poll.YesPercent), `%</span>
            <span class="no">No `, itoa(poll.NoPercent), `%</span>
          </div>
          <div class="bar"><div class="bar-yes" style="width:`, itoa(poll.YesPercent), `%"></div></div>
`)
	if viewer.LoggedIn && !poll.HasVoted {
		b.WriteString(`          <div class="actions">
            <button class="vote primary" data-answer="true">Yes</button>
            <button class="vote secondary" data-answer="false">No</button>
          </div>
`)
	}
}

func writeOptionRows(b *strings.Builder, viewer Viewer, poll PollCard) {
	if len(poll.Options) == 0 {
		b.WriteString(`          <p class="empty">No options available.</p>
`)
		return
	}
	b.WriteString(`          <ul class="options">
`)
	for _, option := range poll.Options {
		writeAll(b, `            <li>
              <span class="label">`, esc(option.Text), `</span>
              <span class="count">`, itoa(option.Votes), ` · `, itoa(option.Percent), `%</span>
`)
		if option.Chosen {
			b.WriteString(`              <span class="badge">Your pick</span>
`)
		}
		if viewer.LoggedIn && !poll.HasVoted {
			writeAll(b, `              <button class="vote secondary" data-option="`, utoa(option.ID), `">Pick</button>
`)
		}
		b.WriteString(`            </li>
`)
	}
	b.WriteString(`          </ul>
`)
}

const homeScript = `<script>
  const voteResult = document.getElementById("voteResult");
  document.querySelectorAll("button.vote").forEach((btn) => {
    btn.addEventListener("click", async () => {
      const card = btn.closest("article.card");
      const pollId = card.dataset.poll;
      const body = btn.dataset.option
        ? { option_id: Number(btn.dataset.option) }
        : { answer: btn.dataset.answer === "true" };
      const res = await fetch("/api/polls/" + pollId + "/vote", {
        method: "POST",
        headers: { "Content-Type": "application/json" },
        body: JSON.stringify(body)
      });
      const data = await res.json();
      voteResult.textContent = data.message || data.error || "";
      if (res.ok) setTimeout(() => window.location.reload(), 1200);
    });
  });
  const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws/home");
  ws.addEventListener("message", () => {
    document.querySelectorAll("article.card .meta").forEach((el) => el.classList.add("stale"));
  });
</script>
`
