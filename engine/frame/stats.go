package frame

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// PassTiming is the wall-clock time one pass spent inside Execute.
type PassTiming struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Statistics is a read-only snapshot of a frame. Slices are copies owned by the receiver.
type Statistics struct {
	Frame      uint64
	Passes     []PassTiming
	FrameTime  time.Duration
	CullTime   time.Duration
	AverageFPS float64

	DrawCalls int
	Triangles int

	Candidates int
	Visible    int
	Culled     int

	PoolMemory  uint64
	PoolBuffers int

	DroppedFrames uint64
	Presented     bool
}

// PassTime returns the recorded duration for the named pass and whether it ran.
func (s Statistics) PassTime(name string) (time.Duration, bool) {
	for _, p := range s.Passes {
		if p.Name == name {
			return p.Duration, true
		}
	}
	return 0, false
}

// Table renders the statistics as a text table.
func (s Statistics) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Pass", "Time", "Status"})
	for _, p := range s.Passes {
		status := "ok"
		if p.Err != nil {
			status = p.Err.Error()
		}
		table.Append([]string{p.Name, p.Duration.String(), status})
	}
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"cull", s.CullTime.String(), fmt.Sprintf("%d/%d visible", s.Visible, s.Candidates)})
	table.Append([]string{"draws", fmt.Sprintf("%d", s.DrawCalls), fmt.Sprintf("%d triangles", s.Triangles)})
	table.Append([]string{"pool", fmtBytes(s.PoolMemory), fmt.Sprintf("%d buffers", s.PoolBuffers)})
	table.SetFooter([]string{fmt.Sprintf("frame %d", s.Frame), s.FrameTime.String(), fmt.Sprintf("%.1f fps", s.AverageFPS)})
	table.Render()
	return buf.String()
}

// fmtBytes formats a byte count with a binary unit.
func fmtBytes(n uint64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
