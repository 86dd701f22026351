package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Rewards renders the active catalog cheapest-first and the caller's
// redemption history.
func Rewards(viewer Viewer, flash string, rewards []RewardCard, history []RedemptionRow) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`      <section class="panel">
        <div>
          <h2>Rewards</h2>
          <p>Spend the points you earned by voting.</p>
        </div>
      </section>
      <section class="rewards">
`)
		if len(rewards) == 0 {
			b.WriteString(`        <p class="empty">No rewards available right now.</p>
`)
		}
		for _, reward := range rewards {
			writeAll(&b, `        <article class="card" data-reward="`, utoa(reward.ID), `">
          <h3>`, esc(reward.Name), `</h3>
`)
			if reward.Description != "" {
				writeAll(&b, `          <p>`, esc(reward.Description), `</p>
`)
			}
			writeAll(&b, `          <p class="meta">`, itoa(reward.PointsCost), ` points</p>
`)
			if viewer.LoggedIn {
				if reward.Affordable {
					b.WriteString(`          <button class="redeem primary">Redeem</button>
`)
				} else {
					b.WriteString(`          <button class="redeem secondary" disabled>Not enough points</button>
`)
				}
			}
			b.WriteString(`        </article>
`)
		}
		b.WriteString(`      </section>
      <div id="redeemResult" class="result"></div>
`)
		if viewer.LoggedIn {
			b.WriteString(`      <section class="panel">
        <h2>Your redemptions</h2>
`)
			if len(history) == 0 {
				b.WriteString(`        <p class="empty">Nothing redeemed yet.</p>
`)
			} else {
				b.WriteString(`        <table class="history">
          <tr><th>Reward</th><th>Points</th><th>When</th></tr>
`)
				for _, row := range history {
					writeAll(&b, `          <tr><td>`, esc(row.RewardName), `</td><td>`,
						itoa(row.PointsSpent), `</td><td>`, esc(row.RedeemedAt), `</td></tr>
`)
				}
				b.WriteString(`        </table>
`)
			}
			b.WriteString(`      </section>
`)
		}
		b.WriteString(rewardsScript)
		_, err := io.WriteString(w, pageShell("Rewards", viewer, flash, b.String()))
		return err
	})
}

const rewardsScript = `<script>
  const redeemResult = document.getElementById("redeemResult");
  document.querySelectorAll("button.redeem:not([disabled])").forEach((btn) => {
    btn.addEventListener("click", async () => {
      const rewardId = btn.closest("article.card").dataset.reward;
      const res = await fetch("/api/rewards/" + rewardId + "/redeem", { method: "POST" });
      const data = await res.json();
      redeemResult.textContent = data.message || data.error || "";
      if (res.ok) setTimeout(() => window.location.reload(), 1200);
    });
  });
</script>
`
