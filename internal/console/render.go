package console

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/c14220110/poliklinik-antrian/internal/antrian/models"
)

const timeLayout = "15:04"

// RenderBoard menulis papan ruang tunggu: sedang dipanggil, sedang dilayani, dan
// antrian berikutnya.
func RenderBoard(w io.Writer, s BoardState) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "PAPAN ANTRIAN\t%s\n", s.RefreshedAt.Format("02-01-2006 15:04:05"))
	fmt.Fprintf(tw, "Total %d\tMenunggu %d\tDilayani %d\tSelesai %d\n",
		s.Statistics.Total, s.Statistics.Waiting+s.Statistics.Called, s.Statistics.InProgress, s.Statistics.Completed)
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "DIPANGGIL\t%s\n", describe(s.Board.Current))
	fmt.Fprintf(tw, "DILAYANI\t%s\n", describe(s.Board.InProgress))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "BERIKUTNYA\tNAMA\tCHECK-IN\tESTIMASI")
	if len(s.Board.Next) == 0 {
		fmt.Fprintln(tw, "-\t\t\t")
	}
	for _, e := range s.Board.Next {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.QueueNumber, e.User.FullName, e.CheckInTime.Format(timeLayout), estimate(e))
	}

	if s.Notice != nil {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "! %s\n", s.Notice.Message)
	}
	return tw.Flush()
}

func describe(e *models.QueueEntry) string {
	if e == nil {
		return "-"
	}
	out := e.QueueNumber + "  " + e.User.FullName
	if e.IsPriority {
		out += " (prioritas)"
	}
	return out
}

func estimate(e models.QueueEntry) string {
	if e.EstimatedWaitTime == nil {
		return "-"
	}
	return fmt.Sprintf("~%d menit", *e.EstimatedWaitTime)
}
