package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/deckhand-dev/deckhand/pkg/render"
)

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// report prints the per-suite result tree followed by a summary line.
func (r *Runner) report(sum Summary) {
	var lastPath string
	nameWidth := r.nameColumnWidth()

	for _, res := range r.results {
		path := strings.Join(res.Path, " "+r.theme.Icons.Suite+" ")
		if path != lastPath {
			r.printf("\n%s %s\n", r.theme.Primary.Render(r.theme.Icons.Suite), r.theme.Bold.Render(path))
			lastPath = path
		}
		r.printLine(res, nameWidth)
	}

	r.printf("\n%s\n", r.summaryLine(sum))
}

func (r *Runner) printLine(res Result, nameWidth int) {
	icon, style := r.theme.Icons.Pass, r.theme.Success
	switch res.Outcome {
	case OutcomeFailed:
		icon, style = r.theme.Icons.Fail, r.theme.Error
	case OutcomeSkipped:
		icon, style = r.theme.Icons.Skip, r.theme.Muted
	case OutcomePending:
		icon, style = r.theme.Icons.Pending, r.theme.Muted
	}

	name := res.Name
	if r.humanize {
		name = render.Humanize(name)
	}

	line := fmt.Sprintf("  %s %s", style.Render(icon), render.PadRight(name, nameWidth))
	if res.Outcome == OutcomePassed || res.Outcome == OutcomeFailed {
		d := r.theme.Muted.Render(res.Elapsed.Round(time.Millisecond).String())
		if res.Slow {
			d = r.theme.Warning.Render(res.Elapsed.Round(time.Millisecond).String() + " (slow)")
		}
		line += "  " + d
	}
	r.printf("%s\n", line)

	if res.Err != nil {
		for _, errLine := range strings.Split(res.Err.Error(), "\n") {
			r.printf("      %s\n", r.theme.Error.Render(errLine))
		}
	}
}

func (r *Runner) nameColumnWidth() int {
	width := 0
	for _, res := range r.results {
		name := res.Name
		if r.humanize {
			name = render.Humanize(name)
		}
		if w := runewidth.StringWidth(name); w > width {
			width = w
		}
	}
	return width
}

func (r *Runner) summaryLine(sum Summary) string {
	parts := []string{
		r.theme.Success.Render(fmt.Sprintf("%d passed", sum.Passed)),
	}
	if sum.Failed > 0 {
		parts = append(parts, r.theme.Error.Render(fmt.Sprintf("%d failed", sum.Failed)))
	}
	if sum.Skipped > 0 {
		parts = append(parts, r.theme.Muted.Render(fmt.Sprintf("%d skipped", sum.Skipped)))
	}
	if sum.Pending > 0 {
		parts = append(parts, r.theme.Muted.Render(fmt.Sprintf("%d pending", sum.Pending)))
	}
	return fmt.Sprintf("%s %s", strings.Join(parts, ", "),
		r.theme.Muted.Render("("+sum.Elapsed.Round(time.Millisecond).String()+")"))
}
