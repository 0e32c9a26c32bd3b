package render

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/lixenwraith/flowgrid/engine"
)

// statusLine summarizes the graph for the line under the frame
func statusLine(e *engine.Entities, tick uint64, paused bool) string {
	s := fmt.Sprintf("tick %s  entities %s  held %s %s",
		humanize.Comma(int64(tick)),
		humanize.Comma(int64(e.Len())),
		humanize.Comma(int64(e.Total())),
		e.Kind(),
	)
	if paused {
		s += "  [paused]"
	}
	return s
}
