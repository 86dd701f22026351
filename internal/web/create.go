package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// CreatePoll renders the market creation form. Option inputs only apply
// to multiple-choice questions; the image is optional and capped at 5 MB.
func CreatePoll(viewer Viewer, flash string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		body := `      <section class="panel">
        <div>
          <h2>Create a market</h2>
          <p>Ask a question the community can predict on.</p>
        </div>
        <form id="createForm" class="create-form">
          <label>Question
            <textarea name="question" maxlength="120" required placeholder="Will [event] happen by [date]?"></textarea>
          </label>
          <label>Kind
            <select name="kind">
              <option value="binary">Yes / No</option>
              <option value="multiple">Multiple choice</option>
            </select>
          </label>
          <div id="optionFields" class="hidden">
            <label>Options (one per line, at least two)
              <textarea name="optionLines" placeholder="Option A&#10;Option B"></textarea>
            </label>
          </div>
          <label>Image (optional, 5 MB max)
            <input type="file" name="image" accept="image/*"/>
          </label>
          <button type="submit" class="primary">Create market</button>
        </form>
        <div id="createResult" class="result"></div>
      </section>
      <script>
        const form = document.getElementById("createForm");
        const result = document.getElementById("createResult");
        const optionFields = document.getElementById("optionFields");
        form.elements.kind.addEventListener("change", () => {
          optionFields.classList.toggle("hidden", form.elements.kind.value !== "multiple");
        });
        form.addEventListener("submit", async (event) => {
          event.preventDefault();
          result.textContent = "Creating market...";
          const payload = new FormData();
          payload.append("question", form.elements.question.value.trim());
          payload.append("kind", form.elements.kind.value);
          if (form.elements.kind.value === "multiple") {
            form.elements.optionLines.value.split("\n")
              .map((line) => line.trim())
              .filter(Boolean)
              .forEach((line) => payload.append("options", line));
          }
          const file = form.elements.image.files[0];
          if (file) payload.append("image", file);
          const res = await fetch("/api/polls", { method: "POST", body: payload });
          const data = await res.json();
          result.textContent = data.success || data.error || "";
          if (res.ok) setTimeout(() => { window.location.href = "/"; }, 1200);
        });
      </script>
`
		_, err := io.WriteString(w, pageShell("Create market", viewer, flash, body))
		return err
	})
}
